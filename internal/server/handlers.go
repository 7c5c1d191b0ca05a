package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"scribe/internal/audio"
	"scribe/internal/jobs"
	"scribe/internal/language"
	"scribe/internal/logging"
	"scribe/internal/preflight"
	"scribe/internal/services"
	"scribe/internal/speakers"
	"scribe/internal/transcription"
)

const (
	multipartMemory  = 32 << 20
	defaultJobsLimit = 50
	maxJobsLimit     = 500
)

// transcribeParams are the validated query knobs of a transcribe request.
type transcribeParams struct {
	LanguageHint string
	Mode         speakers.Mode
	GapThreshold float64
	MaxSpeakers  int
	RequireText  bool
}

type transcribeResponse struct {
	JobID      string                   `json:"job_id,omitempty"`
	Transcript transcription.Transcript `json:"transcript"`
	Report     reportPayload            `json:"report"`
}

type reportPayload struct {
	Backend      string  `json:"backend"`
	AudioSeconds float64 `json:"audio_seconds"`
	Chunks       int     `json:"chunks"`
	FailedChunks int     `json:"failed_chunks"`
	ElapsedMS    int64   `json:"elapsed_ms"`
}

type jobsResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}

type jobResponse struct {
	Job *jobs.Job `json:"job"`
}

type healthResponse struct {
	Status  string             `json:"status"`
	Backend string             `json:"backend,omitempty"`
	Jobs    *jobs.Summary      `json:"jobs,omitempty"`
	Checks  []preflight.Result `json:"checks,omitempty"`
}

func (s *Server) parseTranscribeParams(r *http.Request) (transcribeParams, error) {
	query := r.URL.Query()
	params := transcribeParams{
		GapThreshold: s.opts.Speakers.DefaultGapThreshold,
		MaxSpeakers:  s.opts.Speakers.DefaultMaxSpeakers,
	}

	hint, err := language.ParseHint(query.Get("language_hint"))
	if err != nil {
		return params, err
	}
	params.LanguageHint = hint

	if params.Mode, err = speakers.ParseMode(query.Get("diarization")); err != nil {
		return params, err
	}

	if raw := strings.TrimSpace(query.Get("gap_threshold")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, invalidParam("gap_threshold", raw)
		}
		params.GapThreshold = value
	}
	if raw := strings.TrimSpace(query.Get("max_speakers")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return params, invalidParam("max_speakers", raw)
		}
		params.MaxSpeakers = value
	}
	if err := s.bounds.Validate(params.GapThreshold, params.MaxSpeakers); err != nil {
		return params, err
	}

	if raw := strings.TrimSpace(query.Get("require_text")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return params, invalidParam("require_text", raw)
		}
		params.RequireText = value
	}
	return params, nil
}

func invalidParam(name, raw string) error {
	return services.Wrap(services.ErrValidation, "api", "parse query", fmt.Sprintf("invalid %s %q", name, raw), nil)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	params, err := s.parseTranscribeParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if s.opts.MaxRequestBytes > 0 {
		if r.ContentLength > s.opts.MaxRequestBytes {
			writeError(w, uploadTooLarge(s.opts.MaxRequestBytes))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxRequestBytes)
	}
	buf, err := readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	jobID := s.createJob(ctx, buf, params)
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("transcription requested",
		logging.String("filename", buf.Filename),
		logging.Bytes("size", int64(len(buf.Data))),
		logging.String("diarization", string(params.Mode)),
	)

	transcript, report, err := s.pipeline.Transcribe(ctx, buf, params.LanguageHint)
	if err == nil && params.RequireText {
		err = transcript.RequireText()
	}
	if err != nil {
		logger.Warn("transcription failed", logging.Error(err))
		s.failJob(ctx, jobID, err)
		writeError(w, err)
		return
	}

	if params.Mode == speakers.ModeAlternate {
		transcript.Segments = speakers.LabelAlternating(transcript.Segments, params.GapThreshold, params.MaxSpeakers)
	}

	s.completeJob(ctx, jobID, transcript, report)
	writeJSON(w, http.StatusOK, transcribeResponse{
		JobID:      jobID,
		Transcript: transcript,
		Report: reportPayload{
			Backend:      report.Backend,
			AudioSeconds: report.AudioSeconds,
			Chunks:       report.Chunks,
			FailedChunks: report.FailedChunks,
			ElapsedMS:    report.Elapsed.Milliseconds(),
		},
	})
}

func readUpload(r *http.Request) (audio.Buffer, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return audio.Buffer{}, uploadError("expected multipart/form-data body", err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return audio.Buffer{}, uploadError(`missing multipart field "file"`, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return audio.Buffer{}, uploadError("read uploaded file", err)
	}
	return audio.Buffer{Data: data, Filename: header.Filename}, nil
}

// uploadError reports a body cut off by MaxBytesReader as too large and
// anything else as a malformed request.
func uploadError(message string, err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return uploadTooLarge(maxBytes.Limit)
	}
	return services.Wrap(services.ErrValidation, "api", "read upload", message, err)
}

func uploadTooLarge(limit int64) error {
	return services.Wrap(services.ErrTooLarge, "api", "read upload",
		fmt.Sprintf("request body exceeds %s", humanize.IBytes(uint64(limit))), nil)
}

func (s *Server) createJob(ctx context.Context, buf audio.Buffer, params transcribeParams) string {
	if s.ledger == nil {
		return ""
	}
	job, err := s.ledger.Create(ctx, jobs.NewJob{
		Filename:     buf.Filename,
		Bytes:        int64(len(buf.Data)),
		Backend:      s.opts.Backend,
		LanguageHint: params.LanguageHint,
		Diarization:  string(params.Mode),
	})
	if err != nil {
		logging.WithContext(ctx, s.logger).Warn("job ledger insert failed", logging.Error(err))
		return ""
	}
	return job.ID
}

func (s *Server) completeJob(ctx context.Context, id string, transcript transcription.Transcript, report transcription.Report) {
	if s.ledger == nil || id == "" {
		return
	}
	outcome := jobs.Outcome{
		Language:     transcript.Language,
		AudioSeconds: report.AudioSeconds,
		Chunks:       report.Chunks,
		FailedChunks: report.FailedChunks,
		Segments:     len(transcript.Segments),
	}
	if err := s.ledger.Complete(context.WithoutCancel(ctx), id, outcome); err != nil {
		logging.WithContext(ctx, s.logger).Warn("job ledger update failed", logging.Error(err))
	}
}

func (s *Server) failJob(ctx context.Context, id string, cause error) {
	if s.ledger == nil || id == "" {
		return
	}
	if err := s.ledger.Fail(context.WithoutCancel(ctx), id, cause); err != nil {
		logging.WithContext(ctx, s.logger).Warn("job ledger update failed", logging.Error(err))
	}
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeJSON(w, http.StatusOK, jobsResponse{Jobs: []*jobs.Job{}})
		return
	}
	query := r.URL.Query()
	var statuses []jobs.Status
	for _, value := range query["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := jobs.ParseStatus(value)
		if !ok {
			writeError(w, invalidParam("status", value))
			return
		}
		statuses = append(statuses, status)
	}
	limit := defaultJobsLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			writeError(w, invalidParam("limit", raw))
			return
		}
		limit = min(value, maxJobsLimit)
	}

	list, err := s.ledger.List(r.Context(), limit, statuses...)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}
	writeJSON(w, http.StatusOK, jobsResponse{Jobs: list})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if s.ledger == nil || id == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	job, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Job: job})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Backend: s.opts.Backend}
	if s.opts.Health != nil {
		resp.Checks = s.opts.Health(r.Context())
		if len(preflight.Failed(resp.Checks)) > 0 {
			resp.Status = "degraded"
		}
	}
	if s.ledger != nil {
		if summary, err := s.ledger.Summary(r.Context()); err == nil {
			resp.Jobs = &summary
		} else {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
