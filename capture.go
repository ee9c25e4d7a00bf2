package main

import (
	"context"
	"fmt"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

type CaptureJob struct {
	URL        string
	OutputPath string
	Options    *Options
}

// Capture loads job.URL, waits for the configured delay, resolves the clip
// rectangle and saves the screenshot. The timeout option bounds the whole
// sequence. Nothing is written if any step fails.
func Capture(ctx context.Context, r PageRenderer, job CaptureJob) error {
	opts := job.Options

	if opts.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(opts.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	logger.Debugf(ctx, "loading %s in a %dx%d viewport", job.URL, opts.ViewportWidth, opts.ViewportHeight)
	if err := r.LoadPage(ctx, job.URL, opts.ViewportWidth, opts.ViewportHeight); err != nil {
		return fmt.Errorf("unable to load %s: %w", job.URL, err)
	}

	if opts.Delay > 0 {
		logger.Debugf(ctx, "waiting %v before capture", opts.Delay)
		if err := r.Wait(ctx, opts.Delay); err != nil {
			return fmt.Errorf("interrupted while waiting: %w", err)
		}
	}

	clip, err := ResolveClip(ctx, opts, r)
	if err != nil {
		return err
	}
	if clip == nil {
		logger.Debugf(ctx, "no clip rectangle, capturing the whole viewport")
	}

	if err := r.Capture(ctx, job.OutputPath, clip); err != nil {
		return fmt.Errorf("unable to save %s: %w", job.OutputPath, err)
	}
	return nil
}
