// Package pathguard confines caller-supplied file paths to a single storage
// root.
//
// Paths recorded in the catalog or passed on the query string are untrusted.
// A Guard canonicalizes them (absolute, cleaned, optionally case folded for
// comparison) and accepts a path only when it equals the root or sits below
// it followed by a separator. Relative inputs are interpreted against the
// root, never against the process working directory. Resolve additionally
// stats the file so that only existing regular files reach the streamer.
//
// Containment is logical by default: a symlink inside the root that points
// elsewhere is followed. Options.ResolveSymlinks switches to evaluating links
// before the check, at the cost of rejecting deliberately symlinked layouts.
package pathguard
