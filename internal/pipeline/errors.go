package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgpai22/whisperburn/internal/media"
	"github.com/mgpai22/whisperburn/internal/subtitle"
	"github.com/mgpai22/whisperburn/internal/transcribe"
)

// Kind classifies a pipeline failure for callers that map it to a response.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindMissingInput
	KindResourceExhausted
	KindExternalProcess
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindMissingInput:
		return "missing_input"
	case KindResourceExhausted:
		return "resource_exhausted"
	case KindExternalProcess:
		return "external_process"
	default:
		return "internal"
	}
}

// Stage names the step that failed.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageProbe      Stage = "probe"
	StageReserve    Stage = "reserve output"
	StageTrim       Stage = "trim"
	StageAudio      Stage = "extract audio"
	StageTranscribe Stage = "transcribe"
	StageBuild      Stage = "build subtitles"
	StagePatch      Stage = "patch style"
	StageBurn       Stage = "burn"
)

// Error carries the stage and kind of a failure.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindInternal
}

// StageOf returns the failed stage, or "" for errors from outside the pipeline.
func StageOf(err error) Stage {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Stage
	}
	return ""
}

func newError(stage Stage, kind Kind, err error) *Error {
	return &Error{Stage: stage, Kind: kind, Err: err}
}

func validationError(stage Stage, format string, args ...any) *Error {
	return newError(stage, KindValidation, fmt.Errorf(format, args...))
}

// classify maps collaborator errors onto a kind; fallback is used for
// anything unrecognised.
func classify(stage Stage, err error, fallback Kind) *Error {
	kind := fallback
	switch {
	case errors.Is(err, transcribe.ErrResourceExhausted):
		kind = KindResourceExhausted
	case errors.Is(err, media.ErrEncoderFailed):
		kind = KindExternalProcess
	case errors.Is(err, media.ErrInvalidRange),
		errors.Is(err, subtitle.ErrInvalidStyle),
		errors.Is(err, subtitle.ErrStyleLineMissing),
		errors.Is(err, subtitle.ErrStyleLineDuplicated):
		kind = KindValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindInternal
	}
	return newError(stage, kind, err)
}
