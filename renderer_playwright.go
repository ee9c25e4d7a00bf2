package main

import (
	"context"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
)

type playwrightRenderer struct {
	opts    *Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

var _ PageRenderer = (*playwrightRenderer)(nil)

func newPlaywrightRenderer(ctx context.Context, opts *Options) (*playwrightRenderer, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	logger.Debugf(ctx, "installing the playwright driver if missing")
	if err := playwright.Install(runOpts); err != nil {
		return nil, errors.Wrap(err, "failed to install playwright")
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		pw.Stop()
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	return &playwrightRenderer{
		opts:    opts,
		pw:      pw,
		browser: browser,
	}, nil
}

func (r *playwrightRenderer) LoadPage(ctx context.Context, url string, width, height int) error {
	contextOpts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  width,
			Height: height,
		},
	}
	if len(r.opts.CustomHeaders) > 0 {
		contextOpts.ExtraHttpHeaders = r.opts.CustomHeaders
	}

	bctx, err := r.browser.NewContext(contextOpts)
	if err != nil {
		return errors.Wrap(err, "failed to create context")
	}
	r.context = bctx

	page, err := bctx.NewPage()
	if err != nil {
		return errors.Wrap(err, "failed to create page")
	}
	r.page = page

	if r.opts.TimeoutSeconds > 0 {
		timeout := float64(r.opts.TimeoutSeconds * 1000)
		page.SetDefaultTimeout(timeout)
		page.SetDefaultNavigationTimeout(timeout)
	}

	if len(r.opts.DomainWhitelist) > 0 || r.opts.Debug {
		gate := newRequestGate(r.opts.DomainWhitelist, true)
		err := page.Route("**/*", func(route playwright.Route) {
			requestURL := route.Request().URL()
			logger.Debugf(ctx, "request: %s", requestURL)
			if !gate.Allow(requestURL) {
				logger.Debugf(ctx, "blocked: %s", requestURL)
				route.Abort("blockedbyclient")
				return
			}
			route.Continue()
		})
		if err != nil {
			return errors.Wrap(err, "failed to install request routing")
		}
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	}); err != nil {
		return errors.Wrapf(err, "navigation to %s failed", url)
	}
	return nil
}

func (r *playwrightRenderer) Wait(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}

// ElementBounds measures in document coordinates, like the rod engine, so a
// clip below the fold is not trimmed to the viewport.
func (r *playwrightRenderer) ElementBounds(ctx context.Context, selector string) (Box, error) {
	result, err := r.page.Evaluate(elementBoundsJS, selector)
	if err != nil {
		return Box{}, errors.Wrapf(err, "unable to evaluate selector %q", selector)
	}

	box, ok := boxFromJS(result)
	if !ok {
		return Box{}, errors.WithStack(ErrElementNotFound)
	}
	return box, nil
}

// boxFromJS reads the object returned by elementBoundsJS. Playwright hands
// back whole numbers as ints.
func boxFromJS(v interface{}) (Box, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Box{}, false
	}

	var box Box
	for key, dst := range map[string]*float64{
		"top":    &box.Top,
		"left":   &box.Left,
		"bottom": &box.Bottom,
		"right":  &box.Right,
	} {
		switch n := m[key].(type) {
		case float64:
			*dst = n
		case int:
			*dst = float64(n)
		case int64:
			*dst = float64(n)
		default:
			return Box{}, false
		}
	}
	return box, true
}

func (r *playwrightRenderer) Capture(ctx context.Context, outputPath string, clip *Rect) error {
	captured, opts := playwrightScreenshotOptions(FormatFromPath(outputPath), r.opts.Quality, clip, r.opts.FullHeight)
	if clip != nil {
		logger.Debugf(ctx, "capturing clip %s", clip)
	}

	buf, err := r.page.Screenshot(opts)
	if err != nil {
		return errors.Wrap(err, "unable to capture the screenshot")
	}

	return saveImage(ctx, outputPath, buf, captured, r.opts)
}

// playwrightScreenshotOptions returns the format playwright will encode and
// the screenshot request. playwright encodes PNG and JPEG only; everything
// else goes through libvips. A clip is in document coordinates, which
// playwright honors only for full-page screenshots.
func playwrightScreenshotOptions(output ImageFormat, quality int, clip *Rect, fullHeight bool) (ImageFormat, playwright.PageScreenshotOptions) {
	captured := FormatPNG
	opts := playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	}
	if output == FormatJPEG {
		captured = FormatJPEG
		opts.Type = playwright.ScreenshotTypeJpeg
		if quality > 0 {
			opts.Quality = playwright.Int(quality)
		}
	}

	switch {
	case clip != nil:
		opts.FullPage = playwright.Bool(true)
		opts.Clip = &playwright.Rect{
			X:      clip.Left,
			Y:      clip.Top,
			Width:  clip.Width,
			Height: clip.Height,
		}
	case fullHeight:
		opts.FullPage = playwright.Bool(true)
	}
	return captured, opts
}

func (r *playwrightRenderer) Close() error {
	var result *multierror.Error
	if r.context != nil {
		if err := r.context.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "failed to close context"))
		}
	}
	if err := r.browser.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to close browser"))
	}
	if err := r.pw.Stop(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "failed to stop playwright"))
	}
	return result.ErrorOrNil()
}
