package main

import (
	"path/filepath"
	"strings"
)

type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatGIF  ImageFormat = "gif"
	FormatTIFF ImageFormat = "tiff"
)

// FormatFromPath picks the output format from the file extension, falling
// back to PNG.
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".webp":
		return FormatWebP
	case ".gif":
		return FormatGIF
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatPNG
	}
}

// Native reports whether the browser can encode f directly.
func (f ImageFormat) Native() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatWebP:
		return true
	}
	return false
}

// CaptureFormat is the format requested from the browser for output f.
func (f ImageFormat) CaptureFormat() ImageFormat {
	if f.Native() {
		return f
	}
	return FormatPNG
}

func (f ImageFormat) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
