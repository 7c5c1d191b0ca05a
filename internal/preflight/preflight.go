package preflight

import (
	"context"
	"fmt"
	"strings"

	"scribe/internal/config"
	"scribe/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Options toggles the checks that reach the network.
type Options struct {
	CheckSpeechAPI bool
}

// RunAll executes the preflight checks applicable to the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromDependency(status))
	}

	if opts.CheckSpeechAPI && strings.EqualFold(cfg.Speech.Backend, "openai") {
		results = append(results, CheckSpeechAPI(ctx, cfg.Speech.BaseURL, cfg.Speech.APIKey))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromDependency(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available || status.Optional}
	switch {
	case status.Available:
		result.Detail = status.Command
	case status.Optional:
		result.Detail = fmt.Sprintf("optional: %s", status.Detail)
	default:
		result.Detail = status.Detail
	}
	return result
}
