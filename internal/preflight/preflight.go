package preflight

import (
	"achilles/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all preflight checks for the given config. The bind check
// is skipped when skipBind is set; the daemon does this because its own
// listener reports the same failure.
func RunAll(cfg *config.Config, skipBind bool) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckStorageRoot(cfg.Paths.StorageRoot),
		CheckDirectory("Data directory", cfg.Paths.DataDir),
		CheckDirectory("Log directory", cfg.Paths.LogDir),
	}
	if !skipBind {
		results = append(results, CheckBindAddress(cfg.Server.Bind))
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
