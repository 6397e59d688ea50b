package transcribe

import (
	"context"
	"errors"
	"fmt"

	"github.com/mgpai22/whisperburn/internal/logging"
)

// ErrResourceExhausted is reported when the recognizer runs out of
// accelerator memory or cannot use the requested numeric precision.
var ErrResourceExhausted = errors.New("transcription resources exhausted")

type ResourceError struct {
	Device      Device
	ComputeType string
	Err         error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s on %s/%s: %v", ErrResourceExhausted, e.Device, e.ComputeType, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func (e *ResourceError) Is(target error) bool {
	return target == ErrResourceExhausted
}

// PrecisionReducer is implemented by transcribers that can trade accuracy
// for memory. ReducePrecision returns false when already at the floor.
type PrecisionReducer interface {
	ReducePrecision() bool
}

// TranscribeWithFallback runs t once and, if it reports resource
// exhaustion, retries exactly once at reduced precision.
func TranscribeWithFallback(
	ctx context.Context,
	t Transcriber,
	audioPath string,
	log *logging.Logger,
) (*Result, error) {
	result, err := t.Transcribe(ctx, audioPath)
	if err == nil || !errors.Is(err, ErrResourceExhausted) {
		return result, err
	}

	reducer, ok := t.(PrecisionReducer)
	if !ok || !reducer.ReducePrecision() {
		return nil, err
	}

	logging.OrNop(log).Warnw("transcription ran out of resources, retrying at reduced precision", "error", err)

	result, retryErr := t.Transcribe(ctx, audioPath)
	if retryErr != nil {
		return nil, fmt.Errorf("retry at reduced precision: %w", retryErr)
	}
	return result, nil
}
