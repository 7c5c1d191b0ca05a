package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scribe/internal/jobs"
	"scribe/internal/language"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect the transcription job ledger",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var (
		statusFlags []string
		limit       int
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withJobs(func(store *jobs.Store) error {
				list, err := store.List(cmd.Context(), limit, statuses...)
				if err != nil {
					return err
				}
				if jsonOutput {
					if list == nil {
						list = []*jobs.Job{}
					}
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(jobListColumns, buildJobRows(list)))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (running, completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum jobs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(store *jobs.Store) error {
				job, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				if jsonOutput {
					return writeJSON(cmd, job)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(jobDetailColumns, buildJobDetailRows(job)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the job as JSON")
	return cmd
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return ctx.withJobs(func(store *jobs.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of jobs to delete")
	return cmd
}

func parseStatuses(values []string) ([]jobs.Status, error) {
	var statuses []jobs.Status
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func buildJobRows(list []*jobs.Job) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		chunks := strconv.Itoa(job.Chunks)
		if job.FailedChunks > 0 {
			chunks = fmt.Sprintf("%d (%d failed)", job.Chunks, job.FailedChunks)
		}
		rows = append(rows, []string{
			shortID(job.ID),
			humanize.Time(job.CreatedAt),
			job.Filename,
			string(job.Status),
			languageLabel(job.Language),
			formatTimestamp(job.AudioSeconds),
			chunks,
		})
	}
	return rows
}

func buildJobDetailRows(job *jobs.Job) [][]string {
	rows := [][]string{
		{"ID", job.ID},
		{"File", job.Filename},
		{"Size", humanize.IBytes(uint64(max(job.Bytes, 0)))},
		{"Status", string(job.Status)},
		{"Backend", job.Backend},
		{"Language hint", job.LanguageHint},
		{"Diarization", job.Diarization},
		{"Language", languageLabel(job.Language)},
		{"Audio", formatTimestamp(job.AudioSeconds)},
		{"Chunks", strconv.Itoa(job.Chunks)},
		{"Failed chunks", strconv.Itoa(job.FailedChunks)},
		{"Segments", strconv.Itoa(job.Segments)},
		{"Created", job.CreatedAt.Local().Format(time.RFC3339)},
	}
	if job.FinishedAt != nil {
		rows = append(rows, []string{"Finished", job.FinishedAt.Local().Format(time.RFC3339)})
		rows = append(rows, []string{"Elapsed", job.Elapsed().Round(time.Millisecond).String()})
	}
	if job.ErrorMessage != "" {
		rows = append(rows, []string{"Error kind", job.ErrorKind})
		rows = append(rows, []string{"Error", job.ErrorMessage})
	}
	return rows
}

// languageLabel renders a stored ISO code as "English (en)".
func languageLabel(code string) string {
	if code == "" {
		return ""
	}
	name := language.DisplayName(code)
	if name == "Unknown" || strings.EqualFold(name, code) {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
