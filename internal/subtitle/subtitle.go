package subtitle

import (
	"time"
)

// timed span of recognized speech
type Segment struct {
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// single cue read back out of a document
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// represents supported export formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// Shift returns a copy of segments with offset added to every timestamp.
// Results that would fall before zero are clamped to zero.
func Shift(segments []Segment, offset time.Duration) []Segment {
	shifted := make([]Segment, len(segments))
	for i, seg := range segments {
		shifted[i] = Segment{
			StartTime: clampDuration(seg.StartTime + offset),
			EndTime:   clampDuration(seg.EndTime + offset),
			Text:      seg.Text,
		}
	}
	return shifted
}

func clampDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
