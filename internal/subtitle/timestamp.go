package subtitle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const centisecond = 10 * time.Millisecond

// FormatTimestamp renders d as H:MM:SS.CC. Hours are unbounded and the
// centiseconds are truncated, never rounded. Negative values render as zero.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d / centisecond)

	hours := cs / 360000
	minutes := (cs / 6000) % 60
	seconds := (cs / 100) % 60
	centis := cs % 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// FormatSeconds is FormatTimestamp for a floating point seconds value.
func FormatSeconds(sec float64) string {
	return FormatTimestamp(SecondsToDuration(sec))
}

// converts float seconds, rounding to the nearest nanosecond so that values
// like 3661.999 do not lose a centisecond to binary representation
func SecondsToDuration(sec float64) time.Duration {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0
	}
	return time.Duration(math.Round(sec * float64(time.Second)))
}

// parses H:MM:SS.CC back into a duration
func ParseTimestamp(ts string) (time.Duration, error) {
	ts = strings.TrimSpace(ts)
	parts := strings.Split(ts, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", ts, err)
	}

	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %q: %w", ts, err)
	}

	secParts := strings.Split(parts[2], ".")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid seconds in %q", ts)
	}

	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", ts, err)
	}

	centis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid centiseconds in %q: %w", ts, err)
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*centisecond, nil
}
