package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/whisperburn/internal/subtitle"
)

// ParseClock parses a clip boundary. Accepted forms are plain seconds
// ("75", "75.5"), "MM:SS" and "HH:MM:SS", each optionally with a fractional
// seconds part.
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	sec, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}
	if len(parts) > 1 && sec >= 60 {
		return 0, fmt.Errorf("seconds out of range in %q", s)
	}

	total := sec
	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		v, err := strconv.Atoi(parts[i])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("minutes out of range in %q", s)
		}
		total += float64(v) * multiplier
		multiplier *= 60
	}

	return subtitle.SecondsToDuration(total), nil
}

// ParseRange parses start and end and checks 0 <= start < end.
func ParseRange(start, end string) (time.Duration, time.Duration, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	if e <= s {
		return 0, 0, fmt.Errorf("end %s must be after start %s", e, s)
	}
	return s, e, nil
}
