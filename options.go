package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidExpand reports an expand option with a value count other than 1 or 4.
var ErrInvalidExpand = errors.New("expand must have 1 or 4 values")

const (
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
)

type Options struct {
	ViewportWidth   int
	ViewportHeight  int
	Delay           time.Duration
	ClipRect        *Rect
	Selectors       []string
	Expand          *Padding
	TimeoutSeconds  int
	DomainWhitelist []string
	CustomHeaders   map[string]string
	Resize          *ResizeParams
	Quality         int
	FullHeight      bool
	Engine          string
	Debug           bool
}

// DefaultOptions returns the built-in option defaults as raw values.
func DefaultOptions() map[string]string {
	return map[string]string{
		"vwidth":  "992",
		"vheight": "744",
		"delay":   "0.2",
		"engine":  EngineRod,
	}
}

var knownOptions = map[string]bool{
	"vwidth":     true,
	"vheight":    true,
	"viewport":   true,
	"delay":      true,
	"cliprect":   true,
	"selector":   true,
	"expand":     true,
	"timeout":    true,
	"domains":    true,
	"headers":    true,
	"resize":     true,
	"quality":    true,
	"fullheight": true,
	"engine":     true,
	"config":     true,
	"debug":      true,
	"help":       true,
	"version":    true,
}

// ParseArgs turns tokens like "--vwidth=800" into a name to value mapping.
// Only the first "=" separates the name from the value. A token without "="
// maps its name to the empty string. Later duplicates win.
func ParseArgs(tokens []string) map[string]string {
	opts := make(map[string]string, len(tokens))
	for _, token := range tokens {
		token = strings.TrimPrefix(token, "--")
		name, value, _ := strings.Cut(token, "=")
		opts[name] = value
	}
	return opts
}

// MergeOptions returns a new mapping holding defaults overridden by overrides.
func MergeOptions(defaults, overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// SplitCommandLine separates "--" prefixed option tokens from positional
// arguments, keeping the relative order of each.
func SplitCommandLine(args []string) (positional, tokens []string) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			tokens = append(tokens, arg)
		} else {
			positional = append(positional, arg)
		}
	}
	return positional, tokens
}

// UnknownOptions lists the keys of raw that no component understands.
func UnknownOptions(raw map[string]string) []string {
	var unknown []string
	for k := range raw {
		if !knownOptions[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// NewOptions coerces raw option values into Options. An empty value counts
// as absent for every valued option. All coercion problems are reported
// together.
func NewOptions(raw map[string]string) (*Options, error) {
	opts := &Options{
		Engine: EngineRod,
	}
	var result *multierror.Error

	if v := raw["vwidth"]; v != "" {
		width, err := parsePositiveInt(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid vwidth: %w", err))
		}
		opts.ViewportWidth = width
	}

	if v := raw["vheight"]; v != "" {
		height, err := parsePositiveInt(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid vheight: %w", err))
		}
		opts.ViewportHeight = height
	}

	if v := raw["viewport"]; v != "" {
		width, height, err := ParseViewportString(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid viewport: %w", err))
		} else {
			opts.ViewportWidth = width
			opts.ViewportHeight = height
		}
	}

	if v := raw["delay"]; v != "" {
		delay, err := parseDelay(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid delay: %w", err))
		}
		opts.Delay = delay
	}

	if v := raw["cliprect"]; v != "" {
		values, err := parseNumberList(v)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("invalid cliprect: %w", err))
		case len(values) != 4:
			result = multierror.Append(result, fmt.Errorf("invalid cliprect: got %d values, expected top,left,width,height", len(values)))
		default:
			opts.ClipRect = &Rect{
				Top:    values[0],
				Left:   values[1],
				Width:  values[2],
				Height: values[3],
			}
		}
	}

	if v := raw["selector"]; v != "" {
		opts.Selectors = splitList(v)
	}

	if v := raw["expand"]; v != "" {
		values, err := parseNumberList(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid expand: %w", err))
		} else {
			padding, err := NewPadding(values)
			if err != nil {
				result = multierror.Append(result, err)
			} else {
				opts.Expand = &padding
			}
		}
	}

	if v := raw["timeout"]; v != "" {
		seconds, err := parseTimeoutString(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid timeout: %w", err))
		}
		opts.TimeoutSeconds = seconds
	}

	if v := raw["domains"]; v != "" {
		opts.DomainWhitelist = ParseDomainWhitelist(v)
	}

	if v := raw["headers"]; v != "" {
		headers, err := parseCustomHeaders(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid headers: %w", err))
		}
		opts.CustomHeaders = headers
	}

	if v := raw["resize"]; v != "" {
		params, err := ParseResizeString(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid resize: %w", err))
		}
		opts.Resize = params
	}

	if v := raw["quality"]; v != "" {
		quality, err := strconv.Atoi(v)
		if err != nil || quality < 1 || quality > 100 {
			result = multierror.Append(result, fmt.Errorf("invalid quality %q: must be between 1 and 100", v))
		} else {
			opts.Quality = quality
		}
	}

	if v := raw["engine"]; v != "" {
		switch v {
		case EngineRod, EnginePlaywright:
			opts.Engine = v
		default:
			result = multierror.Append(result, fmt.Errorf("unknown engine %q", v))
		}
	}

	opts.FullHeight = parseFlag(raw, "fullheight")
	opts.Debug = parseFlag(raw, "debug")

	return opts, result.ErrorOrNil()
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d must be positive", n)
	}
	return n, nil
}

func parseDelay(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("delay cannot be negative")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func parseNumberList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		values = append(values, v)
	}
	return values, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseFlag treats a present key as true unless its value spells false.
func parseFlag(raw map[string]string, name string) bool {
	v, ok := raw[name]
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}
