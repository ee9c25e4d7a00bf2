package main

import (
	"fmt"
	"strconv"
	"strings"
)

const maxTimeoutSeconds = 300

// parseTimeoutString parses a page load timeout in whole seconds; 0 disables it.
func parseTimeoutString(timeout string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(timeout))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number of seconds", timeout)
	}

	if seconds < 0 {
		return 0, fmt.Errorf("timeout cannot be negative")
	}

	if seconds > maxTimeoutSeconds {
		return 0, fmt.Errorf("timeout cannot exceed %d seconds", maxTimeoutSeconds)
	}

	return seconds, nil
}
