package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
vwidth: 1280
delay: 0.5
selector:
  - header
  - "#main"
expand: [1, 2, 3, 4]
fullheight: true
headers:
  X-Token: secret
domains: example.com,*.cdn.com
`)

	opts, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"vwidth":     "1280",
		"delay":      "0.5",
		"selector":   "header,#main",
		"expand":     "1,2,3,4",
		"fullheight": "true",
		"headers":    `{"X-Token":"secret"}`,
		"domains":    "example.com,*.cdn.com",
	}, opts)

	parsed, err := NewOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-Token": "secret"}, parsed.CustomHeaders)
	assert.Equal(t, []string{"header", "#main"}, parsed.Selectors)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfigFile(writeConfig(t, "- just\n- a list\n"))
	assert.Error(t, err)
}

func TestBuildRawOptions(t *testing.T) {
	path := writeConfig(t, "vwidth: 1280\ndelay: 1\n")

	raw, err := BuildRawOptions(ParseArgs([]string{"--config=" + path, "--delay=2"}))
	require.NoError(t, err)

	assert.Equal(t, "1280", raw["vwidth"], "config overrides built-in defaults")
	assert.Equal(t, "744", raw["vheight"], "built-in defaults survive")
	assert.Equal(t, "2", raw["delay"], "command line overrides config")

	raw, err = BuildRawOptions(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), raw)
}

func TestBuildRawOptionsEmptyValuesKeepDefaults(t *testing.T) {
	path := writeConfig(t, "vheight: \"\"\n")

	raw, err := BuildRawOptions(ParseArgs([]string{"--config=" + path, "--vwidth", "--delay="}))
	require.NoError(t, err)

	assert.Equal(t, "992", raw["vwidth"])
	assert.Equal(t, "744", raw["vheight"])
	assert.Equal(t, "0.2", raw["delay"])

	opts, err := NewOptions(raw)
	require.NoError(t, err)
	assert.Equal(t, 992, opts.ViewportWidth)
	assert.Equal(t, 744, opts.ViewportHeight)
	assert.Equal(t, 200*time.Millisecond, opts.Delay)
}

func TestParseCustomHeaders(t *testing.T) {
	headers, err := parseCustomHeaders(`{"Authorization":"Bearer token","X-A":"b=c"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer token", "X-A": "b=c"}, headers)

	_, err = parseCustomHeaders(`not json`)
	assert.Error(t, err)
}
