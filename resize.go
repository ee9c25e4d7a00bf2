package main

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/facebookincubator/go-belt/tool/logger"
)

var vipsInitOnce sync.Once

func initVips(ctx context.Context) {
	vipsInitOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, message string) {
			switch level {
			case vips.LogLevelError, vips.LogLevelCritical:
				logger.Errorf(ctx, "%s: %s", domain, message)
			case vips.LogLevelWarning:
				logger.Warnf(ctx, "%s: %s", domain, message)
			default:
				logger.Debugf(ctx, "%s: %s", domain, message)
			}
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: 1,
			MaxCacheFiles:    0,
			MaxCacheMem:      0,
			MaxCacheSize:     0,
		})
	})
}

type ResizeParams struct {
	Width       int
	Height      int
	KeepAspect  bool
	Percentage  bool
	AutoCrop    bool // centered cropping
	Crop        bool
	CropOffsetX int
	CropOffsetY int
}

// ParseResizeString parses resize specs such as "800x600", "800x", "50%x50%",
// "800x600!", "800x600#" and "200x200+10+20".
func ParseResizeString(resize string) (*ResizeParams, error) {
	params := &ResizeParams{
		KeepAspect: true,
	}

	if strings.Contains(resize, "%") {
		params.Percentage = true
		resize = strings.ReplaceAll(resize, "%", "")
	}

	// "_" is accepted as a URL and shell safe alternative to "+"
	var cropSeparator string
	if strings.Contains(resize, "+") {
		cropSeparator = "+"
	} else if strings.Contains(resize, "_") {
		cropSeparator = "_"
	}

	if cropSeparator != "" {
		parts := strings.Split(resize, cropSeparator)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid crop offset format")
		}
		resize = parts[0]
		x, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid crop offset X")
		}
		y, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("invalid crop offset Y")
		}
		params.CropOffsetX = x
		params.CropOffsetY = y
		params.Crop = true
	}

	if strings.HasSuffix(resize, "!") {
		params.KeepAspect = false
		resize = strings.TrimSuffix(resize, "!")
	}

	if strings.HasSuffix(resize, "#") {
		params.AutoCrop = true
		resize = strings.TrimSuffix(resize, "#")
	} else if strings.HasSuffix(resize, "^") {
		params.AutoCrop = true
		resize = strings.TrimSuffix(resize, "^")
	}

	w, h, ok := strings.Cut(resize, "x")
	if !ok || strings.Contains(h, "x") {
		return nil, fmt.Errorf("invalid resize format %q", resize)
	}

	if w != "" {
		width, err := strconv.Atoi(w)
		if err != nil || width < 0 {
			return nil, fmt.Errorf("invalid width")
		}
		params.Width = width
	}

	if h != "" {
		height, err := strconv.Atoi(h)
		if err != nil || height < 0 {
			return nil, fmt.Errorf("invalid height")
		}
		params.Height = height
	}

	if params.Width == 0 && params.Height == 0 {
		return nil, fmt.Errorf("resize needs a width or a height")
	}

	if (params.Crop || params.AutoCrop || !params.KeepAspect) && (params.Width == 0 || params.Height == 0) {
		return nil, fmt.Errorf("cropping and exact resizing need both width and height")
	}

	return params, nil
}

// scaleRatio computes the uniform scale factor for an aspect preserving resize
// of a width x height image.
func (p *ResizeParams) scaleRatio(width, height int) (float64, error) {
	targetWidth := p.Width
	targetHeight := p.Height

	if p.Percentage {
		targetWidth = width * p.Width / 100
		targetHeight = height * p.Height / 100
	}

	var ratio float64
	switch {
	case targetWidth == 0:
		ratio = float64(targetHeight) / float64(height)
	case targetHeight == 0:
		ratio = float64(targetWidth) / float64(width)
	default:
		widthRatio := float64(targetWidth) / float64(width)
		heightRatio := float64(targetHeight) / float64(height)
		if p.AutoCrop {
			ratio = math.Max(widthRatio, heightRatio)
		} else {
			ratio = math.Min(widthRatio, heightRatio)
		}
	}

	if ratio <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0, fmt.Errorf("invalid scale ratio")
	}
	return ratio, nil
}

func exportImage(image *vips.ImageRef, format ImageFormat, quality int) ([]byte, error) {
	var (
		buf []byte
		err error
	)
	switch format {
	case FormatJPEG:
		opts := vips.NewJpegExportParams()
		opts.Quality = 95
		if quality > 0 {
			opts.Quality = quality
		}
		buf, _, err = image.ExportJpeg(opts)
	case FormatPNG:
		opts := vips.NewPngExportParams()
		opts.Compression = 6
		buf, _, err = image.ExportPng(opts)
	case FormatWebP:
		opts := vips.NewWebpExportParams()
		opts.Quality = 90
		if quality > 0 {
			opts.Quality = quality
		}
		buf, _, err = image.ExportWebp(opts)
	case FormatGIF:
		buf, _, err = image.ExportGIF(vips.NewGifExportParams())
	case FormatTIFF:
		buf, _, err = image.ExportTiff(vips.NewTiffExportParams())
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf, err
}

// PostProcess applies the optional resize to an encoded screenshot and
// re-encodes it as format.
func PostProcess(ctx context.Context, buf []byte, params *ResizeParams, format ImageFormat, quality int) ([]byte, error) {
	initVips(ctx)

	image, err := vips.NewImageFromBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode screenshot: %w", err)
	}
	defer image.Close()

	if params != nil {
		if err := applyResize(image, params); err != nil {
			return nil, fmt.Errorf("resize failed: %w", err)
		}
	}

	out, err := exportImage(image, format, quality)
	if err != nil {
		return nil, fmt.Errorf("unable to encode %s: %w", format, err)
	}
	return out, nil
}

func applyResize(image *vips.ImageRef, params *ResizeParams) error {
	// manual cropping, no scaling takes place
	if params.Crop {
		return image.ExtractArea(params.CropOffsetX, params.CropOffsetY, params.Width, params.Height)
	}

	width := image.Width()
	height := image.Height()

	if params.KeepAspect {
		ratio, err := params.scaleRatio(width, height)
		if err != nil {
			return err
		}
		if err := image.Resize(ratio, vips.KernelAuto); err != nil {
			return err
		}
	} else {
		targetWidth, targetHeight := params.Width, params.Height
		if params.Percentage {
			targetWidth = width * params.Width / 100
			targetHeight = height * params.Height / 100
		}
		widthScale := float64(targetWidth) / float64(width)
		heightScale := float64(targetHeight) / float64(height)
		if widthScale <= 0 || heightScale <= 0 {
			return fmt.Errorf("invalid scale ratio")
		}
		if err := image.ResizeWithVScale(widthScale, heightScale, vips.KernelAuto); err != nil {
			return err
		}
	}

	if params.AutoCrop {
		left := (image.Width() - params.Width) / 2
		top := (image.Height() - params.Height) / 2
		return image.ExtractArea(left, top, params.Width, params.Height)
	}

	return nil
}
