package services

import (
	"fmt"
	"strconv"
	"strings"
)

// HourRange is a half-open hour-of-day interval [From, To).
type HourRange struct {
	From int
	To   int
}

// ParseSendWindows parses a window list like "10-12,14-17,20-22".
func ParseSendWindows(spec string) ([]HourRange, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("send windows must not be empty")
	}

	var windows []HourRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid send window %q", part)
		}

		from, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid send window %q: %w", part, err)
		}
		to, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid send window %q: %w", part, err)
		}

		if from < 0 || from > 23 || to < 1 || to > 24 || from >= to {
			return nil, fmt.Errorf("send window %q out of range", part)
		}

		windows = append(windows, HourRange{From: from, To: to})
	}

	return windows, nil
}

// InSendWindow reports whether the given hour-of-day falls inside any window.
func InSendWindow(windows []HourRange, hour int) bool {
	for _, w := range windows {
		if hour >= w.From && hour < w.To {
			return true
		}
	}
	return false
}
