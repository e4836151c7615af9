package preflight

import (
	"context"

	"offlineform/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Data directory", cfg.Paths.DataDir)}

	switch cfg.Connectivity.Mode {
	case config.ModeAuto:
		results = append(results, CheckProbe(ctx, cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeTimeout))
	default:
		results = append(results, Result{Name: "Connectivity probe", Passed: true, Detail: "forced " + cfg.Connectivity.Mode})
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
