package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scribe/internal/audio"
	"scribe/internal/jobs"
	"scribe/internal/logging"
	"scribe/internal/speakers"
	"scribe/internal/speech"
	"scribe/internal/transcription"
)

type labelFlags struct {
	diarization  string
	gapThreshold float64
	maxSpeakers  int
}

func (f *labelFlags) register(cmd *cobra.Command, defaultMode string) {
	cmd.Flags().StringVar(&f.diarization, "diarization", defaultMode, "Speaker labeling: none or alternate")
	cmd.Flags().Float64Var(&f.gapThreshold, "gap-threshold", 0, "Silence in seconds that switches speaker (default from config)")
	cmd.Flags().IntVar(&f.maxSpeakers, "max-speakers", 0, "Speakers in the rotation (default from config)")
}

// apply validates the knobs against the configured bounds and labels segments.
func (f *labelFlags) apply(ctx *commandContext, segments []transcription.Segment) ([]transcription.Segment, speakers.Mode, error) {
	mode, err := speakers.ParseMode(f.diarization)
	if err != nil {
		return nil, "", err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	gap := f.gapThreshold
	if gap == 0 {
		gap = cfg.Speakers.DefaultGapThreshold
	}
	maxSpeakers := f.maxSpeakers
	if maxSpeakers == 0 {
		maxSpeakers = cfg.Speakers.DefaultMaxSpeakers
	}
	if err := speakers.BoundsFromConfig(cfg.Speakers).Validate(gap, maxSpeakers); err != nil {
		return nil, "", err
	}
	if mode == speakers.ModeAlternate {
		segments = speakers.LabelAlternating(segments, gap, maxSpeakers)
	}
	return segments, mode, nil
}

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var (
		languageHint string
		jsonOutput   bool
		requireText  bool
		record       bool
		labels       labelFlags
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe a local recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger()
			if err != nil {
				return err
			}

			// Reject bad labeling knobs before spending time on the backend.
			if _, _, err := labels.apply(ctx, nil); err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			backend, err := speech.New(cfg, logger)
			if err != nil {
				return err
			}
			pipeline, err := transcription.NewFromConfig(cfg, backend, logger)
			if err != nil {
				return err
			}

			var (
				store *jobs.Store
				jobID string
			)
			if record {
				store, err = jobs.Open(cfg)
				if err != nil {
					return fmt.Errorf("open job ledger: %w", err)
				}
				defer store.Close()
				job, err := store.Create(cmd.Context(), jobs.NewJob{
					Filename:     filepath.Base(path),
					Bytes:        int64(len(data)),
					Backend:      backend.Name(),
					LanguageHint: languageHint,
					Diarization:  labels.diarization,
				})
				if err != nil {
					return err
				}
				jobID = job.ID
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Transcribing %s (%s) with %s\n", filepath.Base(path), humanize.IBytes(uint64(len(data))), backend.Name())
			transcript, report, err := pipeline.Transcribe(cmd.Context(), audio.Buffer{Data: data, Filename: filepath.Base(path)}, languageHint)
			if err == nil && requireText {
				err = transcript.RequireText()
			}
			if err != nil {
				if store != nil {
					if failErr := store.Fail(cmd.Context(), jobID, err); failErr != nil {
						logger.Warn("job ledger update failed", logging.Error(failErr))
					}
				}
				return err
			}

			transcript.Segments, _, err = labels.apply(ctx, transcript.Segments)
			if err != nil {
				return err
			}
			if store != nil {
				outcome := jobs.Outcome{
					Language:     transcript.Language,
					AudioSeconds: report.AudioSeconds,
					Chunks:       report.Chunks,
					FailedChunks: report.FailedChunks,
					Segments:     len(transcript.Segments),
				}
				if err := store.Complete(cmd.Context(), jobID, outcome); err != nil {
					logger.Warn("job ledger update failed", logging.Error(err))
				}
			}
			if report.FailedChunks > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %d of %d chunks failed\n", report.FailedChunks, report.Chunks)
			}

			if jsonOutput {
				return writeJSON(cmd, transcript)
			}
			printTranscript(cmd.OutOrStdout(), transcript)
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageHint, "language", "l", "", "Language hint (ISO code or tag; empty or auto to detect)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the transcript as JSON")
	cmd.Flags().BoolVar(&requireText, "require-text", false, "Fail when the transcript has no text")
	cmd.Flags().BoolVar(&record, "record", false, "Record the run in the job ledger")
	labels.register(cmd, string(speakers.ModeNone))
	return cmd
}

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		turnsPath  string
		labels     labelFlags
	)

	cmd := &cobra.Command{
		Use:   "label [transcript.json]",
		Short: "Apply alternating speaker labels to a saved transcript",
		Long:  "Reads a transcript produced by `scribe transcribe --json` (from a file or stdin) and relabels its segments.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open transcript: %w", err)
				}
				defer file.Close()
				reader = file
			}

			var transcript transcription.Transcript
			if err := json.NewDecoder(reader).Decode(&transcript); err != nil {
				return fmt.Errorf("decode transcript: %w", err)
			}

			if turnsPath != "" {
				turns, err := readTurns(turnsPath)
				if err != nil {
					return err
				}
				transcript.Segments = speakers.AssignByOverlap(transcript.Segments, turns)
			} else {
				segments, _, err := labels.apply(ctx, transcript.Segments)
				if err != nil {
					return err
				}
				transcript.Segments = segments
			}

			if jsonOutput {
				return writeJSON(cmd, transcript)
			}
			printTranscript(cmd.OutOrStdout(), transcript)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the labeled transcript as JSON")
	cmd.Flags().StringVar(&turnsPath, "turns", "", "Label from diarization turns in a JSON file ([{start, end, speaker}]) instead of gaps")
	labels.register(cmd, string(speakers.ModeAlternate))
	return cmd
}

func readTurns(path string) ([]speakers.Turn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	var turns []speakers.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	return turns, nil
}

func printTranscript(out io.Writer, transcript transcription.Transcript) {
	for _, seg := range transcript.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.Speaker != "" {
			fmt.Fprintf(out, "[%s - %s] %s: %s\n", formatTimestamp(seg.Start), formatTimestamp(seg.End), seg.Speaker, text)
			continue
		}
		fmt.Fprintf(out, "[%s - %s] %s\n", formatTimestamp(seg.Start), formatTimestamp(seg.End), text)
	}
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
