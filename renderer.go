package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
)

// elementBoundsJS measures the first match of a selector in document
// coordinates, or returns null when nothing matches.
const elementBoundsJS = `(selector) => {
	const el = document.querySelector(selector);
	if (!el) {
		return null;
	}
	const r = el.getBoundingClientRect();
	return {
		top: r.top + window.scrollY,
		left: r.left + window.scrollX,
		bottom: r.bottom + window.scrollY,
		right: r.right + window.scrollX,
	};
}`

// PageRenderer is the browser capability the capture pipeline drives.
type PageRenderer interface {
	BoundsProvider

	// LoadPage navigates to url in a width x height viewport and returns once
	// the page has fired its load event.
	LoadPage(ctx context.Context, url string, width, height int) error

	Wait(ctx context.Context, d time.Duration) error

	// Capture writes the rendered page to outputPath. A nil clip captures the
	// whole viewport.
	Capture(ctx context.Context, outputPath string, clip *Rect) error

	Close() error
}

// openRenderer is the engine factory used by the command; tests replace it.
var openRenderer = newRenderer

func newRenderer(ctx context.Context, opts *Options) (PageRenderer, error) {
	switch opts.Engine {
	case EngineRod, "":
		return newRodRenderer(ctx, opts)
	case EnginePlaywright:
		return newPlaywrightRenderer(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown engine %q", opts.Engine)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// saveImage post-processes a screenshot encoded as captured when resizing or
// a format conversion is needed, then writes it to path.
func saveImage(ctx context.Context, path string, buf []byte, captured ImageFormat, opts *Options) error {
	target := FormatFromPath(path)
	if opts.Resize != nil || captured != target {
		logger.Debugf(ctx, "post-processing %s screenshot into %s", captured, target)
		var err error
		buf, err = PostProcess(ctx, buf, opts.Resize, target, opts.Quality)
		if err != nil {
			return err
		}
	}

	if err := writeFileAtomic(path, buf); err != nil {
		return err
	}
	logger.Infof(ctx, "wrote %s (%s, %s)", path, target.ContentType(), humanize.Bytes(uint64(len(buf))))
	return nil
}

// writeFileAtomic writes to a sibling temporary file and renames it over path
// so readers never observe a partial image.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + "~"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("unable to write '%s': %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("unable to rename '%s' to '%s': %w", tmpPath, path, err)
	}
	return nil
}
