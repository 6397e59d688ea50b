package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

const (
	WhisperXCommand = "whisperx"
	whisperXBatch   = "16"
)

// WhisperXTranscriber runs the whisperx CLI, which transcribes and then
// aligns segment timestamps against the audio.
type WhisperXTranscriber struct {
	command     string
	model       string
	device      Device
	language    string
	workDir     string
	log         *logging.Logger
	detectGPU   func(context.Context) *GPU
	run         func(ctx context.Context, name string, args ...string) ([]byte, error)
	mu          sync.Mutex
	computeType string
}

func NewWhisperXTranscriber(opts Options) (*WhisperXTranscriber, error) {
	device := opts.Device
	if device == "" {
		device = DeviceAuto
	}
	if _, err := ParseDevice(string(device)); err != nil {
		return nil, err
	}

	command := opts.Command
	if command == "" {
		command = WhisperXCommand
	}

	model := CleanModelName(opts.Model)
	if opts.Model == "" {
		model = DefaultModel
	}

	return &WhisperXTranscriber{
		command:     command,
		model:       model,
		device:      device,
		language:    opts.Language,
		workDir:     opts.WorkDir,
		log:         logging.OrNop(opts.Logger).Named("whisperx"),
		detectGPU:   DetectGPU,
		run:         runCombined,
		computeType: opts.ComputeType,
	}, nil
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *WhisperXTranscriber) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.run = runner
}

func runCombined(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// torch >= 2.6 refuses the pickled checkpoints whisperx ships with
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return cmd.CombinedOutput()
}

// ReducePrecision drops to int8. It returns false when already there.
func (t *WhisperXTranscriber) ReducePrecision() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.computeType == ComputeInt8 {
		return false
	}
	t.computeType = ComputeInt8
	return true
}

// ComputeType reports the precision the next run will use.
func (t *WhisperXTranscriber) ComputeType() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.computeType
}

func (t *WhisperXTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	outputDir := t.workDir
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	device := ResolveDevice(t.device, t.gpu(ctx))
	t.mu.Lock()
	if t.computeType == "" {
		t.computeType = DefaultComputeType(device)
	}
	computeType := t.computeType
	t.mu.Unlock()

	args := t.buildArgs(audioPath, outputDir, device, computeType)
	t.log.Infow("transcribing", "model", t.model, "device", device, "compute_type", computeType)

	out, err := t.run(ctx, t.command, args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyFailure(device, computeType, err, out)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".json")
	defer func() { _ = os.Remove(jsonPath) }()

	payload, err := loadPayload(jsonPath)
	if err != nil {
		return nil, err
	}

	segments := make([]subtitle.Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			StartTime: subtitle.SecondsToDuration(seg.Start),
			EndTime:   subtitle.SecondsToDuration(seg.End),
			Text:      text,
		})
	}

	return &Result{
		Segments: segments,
		Language: firstNonEmpty(payload.Language, t.language),
		Duration: segmentsDuration(segments),
	}, nil
}

func (t *WhisperXTranscriber) gpu(ctx context.Context) *GPU {
	if t.device != DeviceAuto || t.detectGPU == nil {
		return nil
	}
	return t.detectGPU(ctx)
}

func (t *WhisperXTranscriber) buildArgs(source, outputDir string, device Device, computeType string) []string {
	args := []string{
		source,
		"--model", t.model,
		"--batch_size", whisperXBatch,
		"--output_dir", outputDir,
		"--output_format", "json",
		"--device", string(device),
		"--compute_type", computeType,
	}
	if lang := strings.TrimSpace(t.language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// resource failures are recognized here so callers can match on the type
func classifyFailure(device Device, computeType string, err error, output []byte) error {
	msg := strings.TrimSpace(string(output))
	lower := strings.ToLower(msg)

	wrapped := fmt.Errorf("whisperx: %w: %s", err, tailLines(msg, 6))

	exhausted := strings.Contains(lower, "out of memory") ||
		(strings.Contains(lower, ComputeFloat16) && computeType == ComputeFloat16)
	if exhausted && device == DeviceCUDA {
		return &ResourceError{Device: device, ComputeType: computeType, Err: wrapped}
	}
	return wrapped
}

type whisperXSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
	Language string            `json:"language"`
}

func loadPayload(jsonPath string) (*whisperXPayload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisperx output: %w", err)
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return &payload, nil
}

func tailLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
