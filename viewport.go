package main

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseViewportString parses a "WxH" viewport such as "1920x1080".
func ParseViewportString(viewport string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(viewport)), "x")
	if !ok || strings.Contains(h, "x") {
		return 0, 0, fmt.Errorf("%q: expected WxH", viewport)
	}

	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("%q: invalid width", viewport)
	}

	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("%q: invalid height", viewport)
	}

	return width, height, nil
}
