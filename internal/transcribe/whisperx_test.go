package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type scriptedRun struct {
	calls   [][]string
	outputs []string
	errs    []error
	json    string
}

// writes the whisperx json next to the requested output dir on success
func (s *scriptedRun) run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	i := len(s.calls) - 1

	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	var out string
	if i < len(s.outputs) {
		out = s.outputs[i]
	}

	if err == nil {
		src := args[0]
		dir := flagValue(args, "--output_dir")
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		_ = os.WriteFile(filepath.Join(dir, base+".json"), []byte(s.json), 0o644)
	}
	return []byte(out), err
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

const alignedJSON = `{
	"language": "en",
	"segments": [
		{"start": 0.031, "end": 1.25, "text": " hello", "words": [{"word": "hello", "start": 0.031, "end": 1.25}]},
		{"start": 1.25, "end": 3.0, "text": "world "},
		{"start": 3.0, "end": 3.5, "text": "   "}
	]
}`

func newTestWhisperX(t *testing.T, opts Options, run *scriptedRun) (*WhisperXTranscriber, string) {
	t.Helper()
	dir := t.TempDir()
	audio := filepath.Join(dir, "clip_trim.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	tr, err := NewWhisperXTranscriber(opts)
	if err != nil {
		t.Fatalf("NewWhisperXTranscriber failed: %v", err)
	}
	tr.WithCommandRunner(run.run)
	tr.detectGPU = func(context.Context) *GPU { return nil }
	return tr, audio
}

func TestWhisperXTranscribe(t *testing.T) {
	run := &scriptedRun{json: alignedJSON}
	tr, audio := newTestWhisperX(t, Options{Model: "small (~2GB)", Device: DeviceCPU, Language: "en"}, run)

	result, err := tr.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Text != "hello" || result.Segments[1].Text != "world" {
		t.Errorf("unexpected segment text: %+v", result.Segments)
	}
	if result.Segments[0].StartTime != 31*time.Millisecond {
		t.Errorf("start = %v", result.Segments[0].StartTime)
	}
	if result.Duration != 3*time.Second {
		t.Errorf("duration = %v", result.Duration)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}

	call := run.calls[0]
	if call[0] != WhisperXCommand {
		t.Errorf("command = %s", call[0])
	}
	args := call[1:]
	for flag, want := range map[string]string{
		"--model":         "small",
		"--device":        "cpu",
		"--compute_type":  "int8",
		"--output_format": "json",
		"--language":      "en",
	} {
		if got := flagValue(args, flag); got != want {
			t.Errorf("%s = %q, want %q", flag, got, want)
		}
	}
}

func TestWhisperXAutoDevice(t *testing.T) {
	run := &scriptedRun{json: alignedJSON}
	tr, audio := newTestWhisperX(t, Options{}, run)
	tr.detectGPU = func(context.Context) *GPU { return &GPU{Name: "RTX", VRAMGiB: 8} }

	if _, err := tr.Transcribe(context.Background(), audio); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	args := run.calls[0][1:]
	if got := flagValue(args, "--device"); got != "cuda" {
		t.Errorf("--device = %q, want cuda", got)
	}
	if got := flagValue(args, "--compute_type"); got != "float16" {
		t.Errorf("--compute_type = %q, want float16", got)
	}
	if got := flagValue(args, "--model"); got != DefaultModel {
		t.Errorf("--model = %q, want %s", got, DefaultModel)
	}
}

func TestWhisperXOutOfMemoryFallback(t *testing.T) {
	run := &scriptedRun{
		json:    alignedJSON,
		outputs: []string{"Loading model...\nRuntimeError: CUDA failed with error out of memory"},
		errs:    []error{errors.New("exit status 1")},
	}
	tr, audio := newTestWhisperX(t, Options{Device: DeviceCUDA}, run)

	result, err := TranscribeWithFallback(context.Background(), tr, audio, nil)
	if err != nil {
		t.Fatalf("TranscribeWithFallback failed: %v", err)
	}
	if len(result.Segments) != 2 {
		t.Errorf("expected 2 segments, got %d", len(result.Segments))
	}

	if len(run.calls) != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", len(run.calls))
	}
	if got := flagValue(run.calls[0][1:], "--compute_type"); got != "float16" {
		t.Errorf("first attempt compute_type = %q", got)
	}
	if got := flagValue(run.calls[1][1:], "--compute_type"); got != "int8" {
		t.Errorf("retry compute_type = %q", got)
	}
}

func TestWhisperXFloat16Unsupported(t *testing.T) {
	run := &scriptedRun{
		outputs: []string{"ValueError: Requested float16 compute type, but the target device or backend do not support efficient float16 computation."},
		errs:    []error{errors.New("exit status 1")},
	}
	tr, audio := newTestWhisperX(t, Options{Device: DeviceCUDA}, run)

	_, err := tr.Transcribe(context.Background(), audio)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
	var rerr *ResourceError
	if !errors.As(err, &rerr) || rerr.ComputeType != ComputeFloat16 {
		t.Errorf("unexpected resource error: %#v", err)
	}
}

func TestWhisperXRetryFailsOnce(t *testing.T) {
	oom := errors.New("exit status 1")
	run := &scriptedRun{
		outputs: []string{"out of memory", "out of memory"},
		errs:    []error{oom, oom},
	}
	tr, audio := newTestWhisperX(t, Options{Device: DeviceCUDA}, run)

	_, err := TranscribeWithFallback(context.Background(), tr, audio, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(run.calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(run.calls))
	}
	if !strings.Contains(err.Error(), "reduced precision") {
		t.Errorf("error should mention the retry: %v", err)
	}
}

func TestWhisperXCPUFailureNotRetried(t *testing.T) {
	run := &scriptedRun{
		outputs: []string{"out of memory"},
		errs:    []error{errors.New("exit status 1")},
	}
	tr, audio := newTestWhisperX(t, Options{Device: DeviceCPU}, run)

	_, err := TranscribeWithFallback(context.Background(), tr, audio, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrResourceExhausted) {
		t.Error("cpu failures are not resource exhaustion")
	}
	if len(run.calls) != 1 {
		t.Errorf("expected no retry, got %d calls", len(run.calls))
	}
}

func TestWhisperXMissingAudio(t *testing.T) {
	tr, err := NewWhisperXTranscriber(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing audio")
	}
}

func TestNewWhisperXBadDevice(t *testing.T) {
	if _, err := NewWhisperXTranscriber(Options{Device: "tpu"}); err == nil {
		t.Error("expected error for unknown device")
	}
}
