package transcribe

import (
	"context"
	"errors"
	"testing"

	"github.com/mgpai22/whisperburn/internal/subtitle"
)

type stubTranscriber struct {
	errs    []error
	calls   int
	reduced int
	floor   bool
}

func (s *stubTranscriber) Transcribe(context.Context, string) (*Result, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &Result{Segments: []subtitle.Segment{{Text: "ok"}}}, nil
}

func (s *stubTranscriber) ReducePrecision() bool {
	s.reduced++
	return !s.floor
}

type plainTranscriber struct {
	calls int
}

func (p *plainTranscriber) Transcribe(context.Context, string) (*Result, error) {
	p.calls++
	return nil, &ResourceError{Device: DeviceCUDA, ComputeType: ComputeFloat16, Err: errors.New("oom")}
}

func TestTranscribeWithFallback(t *testing.T) {
	exhausted := &ResourceError{Device: DeviceCUDA, ComputeType: ComputeFloat16, Err: errors.New("oom")}
	other := errors.New("model not found")

	tests := []struct {
		name        string
		stub        *stubTranscriber
		wantErr     bool
		wantCalls   int
		wantReduced int
	}{
		{"success first try", &stubTranscriber{}, false, 1, 0},
		{"recovers after reduce", &stubTranscriber{errs: []error{exhausted}}, false, 2, 1},
		{"retry also fails", &stubTranscriber{errs: []error{exhausted, exhausted}}, true, 2, 1},
		{"other error not retried", &stubTranscriber{errs: []error{other}}, true, 1, 0},
		{"already at floor", &stubTranscriber{errs: []error{exhausted}, floor: true}, true, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TranscribeWithFallback(context.Background(), tt.stub, "clip.wav", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.stub.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", tt.stub.calls, tt.wantCalls)
			}
			if tt.stub.reduced != tt.wantReduced {
				t.Errorf("reduced = %d, want %d", tt.stub.reduced, tt.wantReduced)
			}
		})
	}
}

func TestTranscribeWithFallbackNoReducer(t *testing.T) {
	p := &plainTranscriber{}
	_, err := TranscribeWithFallback(context.Background(), p, "clip.wav", nil)
	if !errors.Is(err, ErrResourceExhausted) {
		t.Errorf("expected ErrResourceExhausted, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("transcribers without a reducer must not be retried, got %d calls", p.calls)
	}
}
