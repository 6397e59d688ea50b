package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/whisperburn/internal/logging"
	"github.com/mgpai22/whisperburn/internal/subtitle"
)

// ErrEncoderFailed marks a non-zero exit from ffmpeg or ffprobe.
var ErrEncoderFailed = errors.New("encoder failed")

var ErrInvalidRange = errors.New("invalid time range")

// ProcessError carries the tail of the encoder's output for diagnosis.
type ProcessError struct {
	Op       string
	Binary   string
	ExitCode int
	Output   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with status %d", e.Op, filepath.Base(e.Binary), e.ExitCode)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrEncoderFailed
}

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Encoder runs ffmpeg and ffprobe. All operations block until the child
// process exits.
type Encoder struct {
	ffmpegPath  string
	ffprobePath string
	run         Runner
	log         *logging.Logger
}

func NewEncoder(ffmpegPath, ffprobePath string, log *logging.Logger) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Encoder{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		run:         execRunner,
		log:         logging.OrNop(log).Named("media"),
	}
}

// WithRunner sets a custom command runner (for testing).
func (e *Encoder) WithRunner(runner Runner) *Encoder {
	e.run = runner
	return e
}

// Info describes a probed media file.
type Info struct {
	Path       string
	Duration   time.Duration
	Width      int
	Height     int
	VideoCodec string
	HasVideo   bool
	HasAudio   bool
}

// JSON output from ffprobe
type probeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects path with ffprobe.
func (e *Encoder) Probe(ctx context.Context, path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"--", path,
	}
	out, err := e.exec(ctx, "probe", e.ffprobePath, args)
	if err != nil {
		return nil, err
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}

	info := &Info{
		Path:     path,
		Duration: subtitle.SecondsToDuration(seconds),
	}
	for _, s := range probe.Streams {
		switch strings.ToLower(s.CodecType) {
		case "video":
			if !info.HasVideo {
				info.HasVideo = true
				info.Width = s.Width
				info.Height = s.Height
				info.VideoCodec = s.CodecName
			}
		case "audio":
			info.HasAudio = true
		}
	}
	return info, nil
}

// duration of an audio/video file
func (e *Encoder) Duration(ctx context.Context, path string) (time.Duration, error) {
	info, err := e.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// TrimOptions selects the codecs for a trimmed clip.
type TrimOptions struct {
	VideoCodec string
	Preset     string
	AudioCodec string
}

// fast re-encode so the cut lands on the requested frame
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{
		VideoCodec: "libx264",
		Preset:     "ultrafast",
		AudioCodec: "aac",
	}
}

// Trim re-encodes [start, end) of src into dst.
func (e *Encoder) Trim(ctx context.Context, src, dst string, start, end time.Duration, opts TrimOptions) error {
	if start < 0 || end <= start {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}

	args := ffmpeg.Input(src, ffmpeg.KwArgs{"ss": seconds(start)}).
		Output(dst, ffmpeg.KwArgs{
			"t":      seconds(end - start),
			"c:v":    opts.VideoCodec,
			"preset": opts.Preset,
			"c:a":    opts.AudioCodec,
		}).
		OverWriteOutput().
		GetArgs()

	return e.produce(ctx, "trim", src, dst, args)
}

// holds options for audio extraction
type AudioOptions struct {
	Format     string // wav, mp3, aac or flac
	SampleRate int
	Channels   int
	Bitrate    string // lossy formats only
}

// 16kHz mono PCM for local recognizers
func DefaultAudioOptions() AudioOptions {
	return AudioOptions{
		Format:     "wav",
		SampleRate: 16000,
		Channels:   1,
	}
}

// small upload for hosted transcription APIs
func CompressedAudioOptions() AudioOptions {
	return AudioOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

// extension matching opts.Format
func (o AudioOptions) Ext() string {
	switch o.Format {
	case "mp3", "aac", "flac":
		return "." + o.Format
	default:
		return ".wav"
	}
}

// ExtractAudio writes the audio track of src to dst.
func (e *Encoder) ExtractAudio(ctx context.Context, src, dst string, opts AudioOptions) error {
	kwargs := ffmpeg.KwArgs{
		"vn": "",
		"ar": opts.SampleRate,
		"ac": opts.Channels,
	}

	switch opts.Format {
	case "mp3":
		kwargs["acodec"] = "libmp3lame"
	case "aac":
		kwargs["acodec"] = "aac"
	case "flac":
		kwargs["acodec"] = "flac"
	default:
		kwargs["acodec"] = "pcm_s16le"
	}
	if opts.Bitrate != "" && (opts.Format == "mp3" || opts.Format == "aac") {
		kwargs["b:a"] = opts.Bitrate
	}

	args := ffmpeg.Input(src).
		Output(dst, kwargs).
		OverWriteOutput().
		GetArgs()

	return e.produce(ctx, "extract audio", src, dst, args)
}

// BurnOptions selects the codecs for the final render.
type BurnOptions struct {
	VideoCodec string
	Preset     string
}

func DefaultBurnOptions() BurnOptions {
	return BurnOptions{
		VideoCodec: "libx264",
		Preset:     "fast",
	}
}

// Burn renders the subtitles in subtitlePath into the video frames of src.
// Audio is copied unchanged.
func (e *Encoder) Burn(ctx context.Context, src, subtitlePath, dst string, opts BurnOptions) error {
	if _, err := os.Stat(subtitlePath); err != nil {
		return fmt.Errorf("burn: subtitle document: %w", err)
	}

	args := ffmpeg.Input(src).
		Output(dst, ffmpeg.KwArgs{
			"vf":     "subtitles=" + EscapeFilterPath(subtitlePath),
			"c:v":    opts.VideoCodec,
			"preset": opts.Preset,
			"c:a":    "copy",
		}).
		OverWriteOutput().
		GetArgs()

	return e.produce(ctx, "burn", src, dst, args)
}

// runs ffmpeg for an operation that writes dst; dst is removed on failure
func (e *Encoder) produce(ctx context.Context, op, src, dst string, args []string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%s: input: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%s: failed to create output directory: %w", op, err)
	}

	started := time.Now()
	if _, err := e.exec(ctx, op, e.ffmpegPath, args); err != nil {
		if rmErr := os.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			e.log.Warnw("failed to remove partial output", "path", dst, "error", rmErr)
		}
		return err
	}

	e.log.Debugw("encoder finished", "op", op, "output", dst, "elapsed", time.Since(started))
	return nil
}

func (e *Encoder) exec(ctx context.Context, op, binary string, args []string) ([]byte, error) {
	e.log.Debugw("running encoder", "op", op, "binary", binary, "args", args)

	out, err := e.run(ctx, binary, args...)
	if err == nil {
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", op, ctxErr)
	}

	perr := &ProcessError{
		Op:       op,
		Binary:   binary,
		ExitCode: -1,
		Output:   tail(string(out), 8),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr.ExitCode = exitErr.ExitCode()
	}
	return nil, perr
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// last n non-empty lines of s
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
