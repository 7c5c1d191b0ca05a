package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scribe/internal/daemon"
	"scribe/internal/jobs"
	"scribe/internal/preflight"
)

type statusReport struct {
	ConfigPath string             `json:"config_path"`
	ConfigFile bool               `json:"config_file"`
	Running    bool               `json:"running"`
	Bind       string             `json:"bind"`
	Backend    string             `json:"backend"`
	Checks     []preflight.Result `json:"checks"`
	Jobs       jobs.Summary       `json:"jobs"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		checkAPI   bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show service, dependency, and ledger status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			running, err := daemon.IsRunning(cfg.LockPath())
			if err != nil {
				return err
			}
			report := statusReport{
				ConfigPath: ctx.configPath,
				ConfigFile: ctx.configSeen,
				Running:    running,
				Bind:       cfg.Paths.APIBind,
				Backend:    cfg.Speech.Backend,
				Checks:     preflight.RunAll(cmd.Context(), cfg, preflight.Options{CheckSpeechAPI: checkAPI}),
			}
			if err := ctx.withJobs(func(store *jobs.Store) error {
				report.Jobs, err = store.Summary(cmd.Context())
				return err
			}); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			configLabel := report.ConfigPath
			if !report.ConfigFile {
				configLabel += " (not found, using defaults)"
			}
			fmt.Fprint(out, renderTable(serviceColumns, [][]string{
				{"Config", configLabel},
				{"Server running", yesNo(report.Running)},
				{"Bind", report.Bind},
				{"Backend", report.Backend},
			}))

			checkRows := make([][]string, 0, len(report.Checks))
			for _, check := range report.Checks {
				checkRows = append(checkRows, []string{check.Name, passLabel(check.Passed), check.Detail})
			}
			fmt.Fprint(out, renderTable(checkColumns, checkRows))

			fmt.Fprint(out, renderTable(jobCountColumns, [][]string{
				{"Running", fmt.Sprint(report.Jobs.Running)},
				{"Completed", fmt.Sprint(report.Jobs.Completed)},
				{"Failed", fmt.Sprint(report.Jobs.Failed)},
				{"Total", fmt.Sprint(report.Jobs.Total)},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print status as JSON")
	cmd.Flags().BoolVar(&checkAPI, "check-api", false, "Also verify the speech API key over the network")
	return cmd
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
