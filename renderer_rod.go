package main

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/ysmood/gson"
)

type rodRenderer struct {
	opts     *Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter

	viewportWidth  int
	viewportHeight int
}

var _ PageRenderer = (*rodRenderer)(nil)

func newRodRenderer(ctx context.Context, opts *Options) (*rodRenderer, error) {
	l := launcher.New().Context(ctx).Headless(os.Getenv("ROD_HEADLESS") != "false")
	if bin := os.Getenv("ROD_BROWSER"); bin != "" {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(err, "unable to launch the browser")
	}

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		discardBrowser(l)
		return nil, errors.Wrap(err, "unable to connect to the browser")
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		discardBrowser(l)
		return nil, errors.Wrap(err, "unable to open a page")
	}

	r := &rodRenderer{
		opts:     opts,
		launcher: l,
		browser:  browser,
		page:     page,
	}

	r.router = setupRequestHijacking(ctx, page, &HijackConfig{
		DomainWhitelist:    opts.DomainWhitelist,
		CustomHeaders:      opts.CustomHeaders,
		Debug:              opts.Debug,
		PermitFirstRequest: true,
	})

	return r, nil
}

func (r *rodRenderer) LoadPage(ctx context.Context, url string, width, height int) error {
	page := r.page.Context(ctx)

	err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	})
	if err != nil {
		return errors.Wrap(err, "unable to set the viewport")
	}
	r.viewportWidth = width
	r.viewportHeight = height

	if err := page.Navigate(url); err != nil {
		return errors.Wrapf(err, "unable to navigate to %s", url)
	}

	if err := page.WaitLoad(); err != nil {
		return errors.Wrapf(err, "page %s did not finish loading", url)
	}
	return nil
}

func (r *rodRenderer) Wait(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}

func (r *rodRenderer) ElementBounds(ctx context.Context, selector string) (Box, error) {
	obj, err := r.page.Context(ctx).Eval(elementBoundsJS, selector)
	if err != nil {
		return Box{}, errors.Wrapf(err, "unable to evaluate selector %q", selector)
	}
	if obj.Value.Nil() {
		return Box{}, errors.WithStack(ErrElementNotFound)
	}

	v := obj.Value
	return Box{
		Top:    v.Get("top").Num(),
		Left:   v.Get("left").Num(),
		Bottom: v.Get("bottom").Num(),
		Right:  v.Get("right").Num(),
	}, nil
}

func (r *rodRenderer) Capture(ctx context.Context, outputPath string, clip *Rect) error {
	page := r.page.Context(ctx)
	captured := FormatFromPath(outputPath).CaptureFormat()

	req := &proto.PageCaptureScreenshot{
		Format:      rodScreenshotFormat(captured),
		FromSurface: true,
	}
	if r.opts.Quality > 0 && captured != FormatPNG {
		req.Quality = gson.Int(r.opts.Quality)
	}

	switch {
	case clip != nil:
		req.Clip = &proto.PageViewport{
			X:      clip.Left,
			Y:      clip.Top,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  1,
		}
		req.CaptureBeyondViewport = true
		logger.Debugf(ctx, "capturing clip %s", clip)
	case r.opts.FullHeight:
		if err := r.adjustViewportForFullHeight(page); err != nil {
			return err
		}
	}

	buf, err := page.Screenshot(false, req)
	if err != nil {
		return errors.Wrap(err, "unable to capture the screenshot")
	}

	return saveImage(ctx, outputPath, buf, captured, r.opts)
}

func (r *rodRenderer) Close() error {
	var result *multierror.Error
	if r.router != nil {
		if err := r.router.Stop(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "unable to stop request hijacking"))
		}
	}
	if err := r.browser.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "unable to close the browser"))
	}
	r.launcher.Cleanup()
	return result.ErrorOrNil()
}

// browserProcess is the part of *launcher.Launcher used to tear down a
// browser that never became usable.
type browserProcess interface {
	Kill()
	Cleanup()
}

// discardBrowser kills the process and removes its user-data directory.
func discardBrowser(p browserProcess) {
	p.Kill()
	p.Cleanup()
}

func rodScreenshotFormat(f ImageFormat) proto.PageCaptureScreenshotFormat {
	switch f {
	case FormatJPEG:
		return proto.PageCaptureScreenshotFormatJpeg
	case FormatWebP:
		return proto.PageCaptureScreenshotFormatWebp
	default:
		return proto.PageCaptureScreenshotFormatPng
	}
}

// adjustViewportForFullHeight grows the viewport to the document height,
// capped at ten times the configured viewport height.
func (r *rodRenderer) adjustViewportForFullHeight(page *rod.Page) error {
	metrics, err := proto.PageGetLayoutMetrics{}.Call(page)
	if err != nil {
		return errors.Wrap(err, "failed to get layout metrics")
	}

	var contentHeight float64
	if metrics.CSSContentSize != nil {
		contentHeight = metrics.CSSContentSize.Height
	} else if metrics.ContentSize != nil {
		contentHeight = metrics.ContentSize.Height
	}

	targetHeight := fullHeightTarget(int(math.Ceil(contentHeight)), r.viewportHeight)
	if targetHeight == r.viewportHeight {
		return nil
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.viewportWidth,
		Height:            targetHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	})
	if err != nil {
		return errors.Wrap(err, "failed to set viewport for full height")
	}

	r.viewportHeight = targetHeight
	return nil
}

// fullHeightTarget clamps a document height to [viewportHeight, 10*viewportHeight].
func fullHeightTarget(contentHeight, viewportHeight int) int {
	if viewportHeight <= 0 {
		return contentHeight
	}

	maxHeight := math.MaxInt
	if viewportHeight <= math.MaxInt/10 {
		maxHeight = viewportHeight * 10
	}

	switch {
	case contentHeight < viewportHeight:
		return viewportHeight
	case contentHeight > maxHeight:
		return maxHeight
	default:
		return contentHeight
	}
}

type HijackConfig struct {
	DomainWhitelist    []string
	CustomHeaders      map[string]string
	Debug              bool
	PermitFirstRequest bool // the page URL itself is never filtered
}

func (c *HijackConfig) needed() bool {
	return c.Debug || len(c.DomainWhitelist) > 0 || len(c.CustomHeaders) > 0
}

// setupRequestHijacking installs network logging, domain filtering and custom
// headers on page. It returns nil when none of them is configured.
func setupRequestHijacking(ctx context.Context, page *rod.Page, config *HijackConfig) *rod.HijackRouter {
	if config.Debug {
		var requestURLs sync.Map

		go page.EachEvent(func(e *proto.NetworkRequestWillBeSent) {
			requestURLs.Store(string(e.RequestID), e.Request.URL)
		})()

		go page.EachEvent(func(e *proto.NetworkResponseReceived) {
			logger.Debugf(ctx, "response: %s - status: %d - size: %d bytes",
				e.Response.URL, e.Response.Status, int64(e.Response.EncodedDataLength))
		})()

		go page.EachEvent(func(e *proto.NetworkLoadingFailed) {
			url := "unknown URL"
			if val, ok := requestURLs.LoadAndDelete(string(e.RequestID)); ok {
				if s, _ := val.(string); s != "" {
					url = s
				}
			}
			logger.Debugf(ctx, "network error: %s - %s", url, e.ErrorText)
		})()
	}

	if !config.needed() {
		return nil
	}

	router := page.HijackRequests()
	gate := newRequestGate(config.DomainWhitelist, config.PermitFirstRequest)
	router.MustAdd("*", func(h *rod.Hijack) {
		requestURL := h.Request.URL().String()
		logger.Debugf(ctx, "request: %s", requestURL)

		if !gate.Allow(requestURL) {
			logger.Debugf(ctx, "blocked: %s", requestURL)
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}

		h.ContinueRequest(&proto.FetchContinueRequest{
			Headers: mergeRequestHeaders(ctx, h, config.CustomHeaders),
		})
	})
	go router.Run()

	return router
}

// mergeRequestHeaders returns nil when there is nothing to add, which keeps
// the original request headers untouched.
func mergeRequestHeaders(ctx context.Context, h *rod.Hijack, custom map[string]string) []*proto.FetchHeaderEntry {
	if len(custom) == 0 {
		return nil
	}

	var headers []*proto.FetchHeaderEntry
	for name, values := range h.Request.Req().Header {
		if _, overridden := custom[name]; overridden {
			continue
		}
		for _, value := range values {
			headers = append(headers, &proto.FetchHeaderEntry{Name: name, Value: value})
		}
	}
	for name, value := range custom {
		headers = append(headers, &proto.FetchHeaderEntry{Name: name, Value: value})
	}

	if headersJSON, err := json.Marshal(custom); err == nil {
		logger.Tracef(ctx, "adding custom headers: %s", headersJSON)
	}
	return headers
}
