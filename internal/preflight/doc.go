// Package preflight provides readiness checks for the filesystem paths and
// listener address Achilles depends on.
//
// These checks run in two contexts:
//   - daemonrun calls RunAll before starting the server and refuses to start
//     when a required check fails.
//   - The CLI "achilles status" command shows the same results next to the
//     daemon health report.
//
// The storage root only needs to be readable and traversable: the server
// never writes to it. Data and log directories need write access.
package preflight
