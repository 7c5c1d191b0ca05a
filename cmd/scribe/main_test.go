package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"scribe/internal/jobs"
	"scribe/internal/testsupport"
	"scribe/internal/transcription"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	audioPath  string
	requests   *atomic.Int32
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	requests := new(atomic.Int32)
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"task":"transcribe","language":"english","duration":3,"text":"hello team",`+
			`"segments":[{"id":0,"start":0,"end":1,"text":"hello"},{"id":1,"start":2.5,"end":3,"text":"team"}]}`)
	}))
	t.Cleanup(api.Close)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q
work_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[speech]
backend = "openai"
model = "whisper-1"
api_key = "test"
base_url = %q

[audio]
decoder = "native"
`, filepath.Join(base, "state"), filepath.Join(base, "work"), filepath.Join(base, "logs"), api.URL+"/v1")
	testsupport.WriteFile(t, configPath, []byte(content))

	audioPath := filepath.Join(base, "meeting.wav")
	testsupport.WriteFile(t, audioPath, testsupport.ToneWAV(t, 3))

	return &cliTestEnv{baseDir: base, configPath: configPath, audioPath: audioPath, requests: requests}
}

func runCLI(t *testing.T, args []string, configPath string, stdin string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Speech backend: openai:whisper-1")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestTranscribeCommandJSONWithLabels(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"transcribe", env.audioPath, "--json", "--diarization", "alternate", "--record"}, env.configPath, "")
	if err != nil {
		t.Fatalf("transcribe: %v (stderr: %s)", err, stderr)
	}
	requireContains(t, stderr, "Transcribing meeting.wav")

	var transcript transcription.Transcript
	if err := json.Unmarshal([]byte(out), &transcript); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if transcript.Text != "hello team" || transcript.Language != "en" {
		t.Fatalf("unexpected transcript %+v", transcript)
	}
	if len(transcript.Segments) != 2 || transcript.Segments[0].Speaker != "Speaker 1" || transcript.Segments[1].Speaker != "Speaker 2" {
		t.Fatalf("unexpected segments %+v", transcript.Segments)
	}
	if env.requests.Load() != 1 {
		t.Fatalf("expected a single backend call, got %d", env.requests.Load())
	}

	out, _, err = runCLI(t, []string{"jobs", "list", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	var list []jobs.Job
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode jobs: %v\n%s", err, out)
	}
	if len(list) != 1 || list[0].Status != jobs.StatusCompleted || list[0].Filename != "meeting.wav" || list[0].Segments != 2 {
		t.Fatalf("unexpected jobs %+v", list)
	}

	out, _, err = runCLI(t, []string{"jobs", "show", list[0].ID}, env.configPath, "")
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "meeting.wav")
	requireContains(t, out, "openai:whisper-1")
	requireContains(t, out, "English (en)")
}

func TestTranscribeCommandRejectsBadKnobs(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"transcribe", env.audioPath, "--max-speakers", "12"}, env.configPath, ""); err == nil {
		t.Fatal("expected validation error")
	}
	if env.requests.Load() != 0 {
		t.Fatalf("backend should not be called, got %d requests", env.requests.Load())
	}
}

func TestLabelCommandFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)

	input := `{"language":"en","text":"a b c","segments":[` +
		`{"start":0,"end":1,"text":"a"},{"start":3,"end":4,"text":"b"},{"start":6,"end":7,"text":"c"}]}`
	out, _, err := runCLI(t, []string{"label", "--max-speakers", "2"}, env.configPath, input)
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	requireContains(t, out, "[00:00:00 - 00:00:01] Speaker 1: a")
	requireContains(t, out, "[00:00:03 - 00:00:04] Speaker 2: b")
	requireContains(t, out, "[00:00:06 - 00:00:07] Speaker 1: c")
}

func TestLabelCommandFromDiarizationTurns(t *testing.T) {
	env := setupCLITestEnv(t)

	turnsPath := filepath.Join(env.baseDir, "turns.json")
	testsupport.WriteFile(t, turnsPath, []byte(`[{"start":0,"end":2,"speaker":"SPEAKER_00"},{"start":2,"end":5,"speaker":"SPEAKER_01"}]`))

	input := `{"language":"en","text":"a b c","segments":[` +
		`{"start":0,"end":1,"text":"a"},{"start":1.5,"end":4,"text":"b"},{"start":9,"end":10,"text":"c"}]}`
	out, _, err := runCLI(t, []string{"label", "--turns", turnsPath}, env.configPath, input)
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	requireContains(t, out, "] SPEAKER_00: a")
	requireContains(t, out, "] SPEAKER_01: b")
	requireContains(t, out, "] UNKNOWN: c")
}

func TestStatusCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if report.Running || !report.ConfigFile || report.Backend != "openai" || len(report.Checks) == 0 {
		t.Fatalf("unexpected status %+v", report)
	}
}

func TestJobsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "No jobs recorded")

	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "pending"}, env.configPath, ""); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestLanguageLabel(t *testing.T) {
	cases := map[string]string{"": "", "en": "English (en)", "unknown": "Unknown", "??": "??"}
	for in, want := range cases {
		if got := languageLabel(in); got != want {
			t.Fatalf("languageLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{0: "00:00:00", 61.9: "00:01:01", 3725: "01:02:05", -3: "00:00:00"}
	for in, want := range cases {
		if got := formatTimestamp(in); got != want {
			t.Fatalf("formatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}
