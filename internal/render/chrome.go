package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in a shared headless Chrome. Each Render
// opens a fresh tab and closes it afterwards.
type ChromeRenderer struct {
	opts Options
	log  logger.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

// NewChromeRenderer creates a renderer. The browser is launched lazily on
// the first Render call.
func NewChromeRenderer(opts Options, log logger.Logger) *ChromeRenderer {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChromeRenderer{opts: opts.WithDefaults(), log: log}
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(r.opts.UserAgent),
		chromedp.WindowSize(DefaultViewportW, DefaultViewportH),
	)
	if r.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.opts.ExecPath))
	}
	return opts
}

func (r *ChromeRenderer) browser() (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx != nil {
		return r.browserCtx, nil
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), r.allocatorOptions()...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	r.browserCtx = browserCtx
	r.cancelAlloc = cancelAlloc
	r.cancelBrowser = cancelBrowser
	r.log.Info("Headless browser started")

	return browserCtx, nil
}

// Render navigates a new tab to url and returns the document's outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	browserCtx, err := r.browser()
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	start := time.Now()

	// The first Run creates the target under its context, so it must not
	// carry the navigation timeout or the tab dies when that timeout fires.
	if err := chromedp.Run(tabCtx); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("open tab: %w", err)}
	}

	navCtx, cancelNav := context.WithTimeout(tabCtx, r.opts.Timeout)
	defer cancelNav()

	if err := chromedp.Run(navCtx,
		chromedp.EmulateViewport(DefaultViewportW, DefaultViewportH),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	if r.opts.ReadySelector != "" {
		r.waitForMarker(tabCtx, url)
	}

	readCtx, cancelRead := context.WithTimeout(tabCtx, r.opts.SettleDelay+r.opts.Timeout)
	defer cancelRead()

	var html string
	if err := chromedp.Run(readCtx,
		chromedp.Sleep(r.opts.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	r.log.Debug("Page rendered",
		logger.String("url", url),
		logger.Duration("duration", time.Since(start)),
		logger.Int("bytes", len(html)),
	)

	return html, nil
}

// waitForMarker blocks until the ready selector shows up or the timeout
// passes. A missing marker is logged, not fatal.
func (r *ChromeRenderer) waitForMarker(ctx context.Context, url string) {
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	err := chromedp.Run(waitCtx, chromedp.WaitVisible(r.opts.ReadySelector, chromedp.ByQuery))
	if err == nil {
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		r.log.Warn("Ready marker not found before timeout",
			logger.String("url", url),
			logger.String("selector", r.opts.ReadySelector),
		)
		return
	}
	r.log.Warn("Waiting for ready marker failed",
		logger.String("url", url),
		logger.Error(err),
	)
}

// Close shuts the browser down. The renderer may be used again afterwards.
func (r *ChromeRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browserCtx == nil {
		return nil
	}

	r.cancelBrowser()
	r.cancelAlloc()
	r.browserCtx = nil
	r.log.Info("Headless browser stopped")

	return nil
}
