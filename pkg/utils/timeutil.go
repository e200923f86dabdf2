package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow is the history window used when a request does not specify one.
const DefaultWindow = "1y"

// ParseWindow converts a display window like "3mo", "1y" or "90d" into the
// start time for a history fetch, anchored at now. Supported units: d (days),
// mo (months), y (years).
func ParseWindow(window string, now time.Time) (time.Time, error) {
	w := strings.TrimSpace(strings.ToLower(window))
	if w == "" {
		w = DefaultWindow
	}

	var numPart, unit string
	switch {
	case strings.HasSuffix(w, "mo"):
		numPart, unit = strings.TrimSuffix(w, "mo"), "mo"
	case strings.HasSuffix(w, "y"):
		numPart, unit = strings.TrimSuffix(w, "y"), "y"
	case strings.HasSuffix(w, "d"):
		numPart, unit = strings.TrimSuffix(w, "d"), "d"
	default:
		return time.Time{}, fmt.Errorf("unrecognized window %q", window)
	}

	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("unrecognized window %q", window)
	}

	switch unit {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	default:
		return now.AddDate(-n, 0, 0), nil
	}
}
