package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Default timeouts for page loads and element captures.
const (
	DefaultPageTimeout    = 30 * time.Second
	DefaultElementTimeout = 5 * time.Second
)

// PageOptions describes how to open a scanned page.
type PageOptions struct {
	// URL is the page to navigate to.
	URL string

	// Width and Height set the viewport. Zero keeps the browser default.
	Width  int
	Height int

	// Headers are sent with every request of the page.
	Headers map[string]string

	// Cookie is a Cookie header value ("a=1; b=2") set before navigation.
	Cookie string

	// WaitSelector, when set, must be visible before the page counts as
	// loaded.
	WaitSelector string

	// Timeout bounds navigation. Zero uses DefaultPageTimeout.
	Timeout time.Duration

	// ElementTimeout bounds each element capture. Zero uses
	// DefaultElementTimeout.
	ElementTimeout time.Duration
}

// Page is a browser tab showing one scanned page.
type Page struct {
	ctx            context.Context
	cancel         context.CancelFunc
	url            string
	elementTimeout time.Duration
	logger         *slog.Logger
}

// NewPage opens a tab and navigates it to opts.URL.
func (s *Session) NewPage(ctx context.Context, opts PageOptions) (*Page, error) {
	if opts.URL == "" {
		return nil, ErrNoURL
	}

	tabCtx, cancel := chromedp.NewContext(s.ctx)
	p := &Page{
		ctx:            tabCtx,
		cancel:         cancel,
		url:            opts.URL,
		elementTimeout: opts.ElementTimeout,
		logger:         s.logger.With("url", opts.URL),
	}
	if p.elementTimeout <= 0 {
		p.elementTimeout = DefaultElementTimeout
	}

	// The tab must be created outside any timeout, or its lifetime would be
	// tied to that timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	actions, err := loadActions(opts)
	if err != nil {
		cancel()
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	runCtx, stop := p.bound(ctx, timeout)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to load %s: %w", opts.URL, err)
	}

	p.logger.Debug("page loaded")
	return p, nil
}

// loadActions builds the actions that prepare and navigate a tab.
func loadActions(opts PageOptions) ([]chromedp.Action, error) {
	var actions []chromedp.Action

	if opts.Width > 0 && opts.Height > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)))
	}
	if len(opts.Headers) > 0 {
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(extraHeaders(opts.Headers)))
	}
	if opts.Cookie != "" {
		cookies, err := cookieParams(opts.URL, opts.Cookie)
		if err != nil {
			return nil, err
		}
		actions = append(actions, network.SetCookies(cookies))
	}

	actions = append(actions, chromedp.Navigate(opts.URL))
	if opts.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.WaitReady("body", chromedp.ByQuery))
	}
	return actions, nil
}

func extraHeaders(h map[string]string) network.Headers {
	headers := make(network.Headers, len(h))
	for k, v := range h {
		headers[k] = v
	}
	return headers
}

// cookieParams parses a Cookie header value into cookies scoped to rawURL.
func cookieParams(rawURL, header string) ([]*network.CookieParam, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid page URL %q for cookies", rawURL)
	}

	parsed, err := http.ParseCookie(header)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie header: %w", err)
	}

	params := make([]*network.CookieParam, 0, len(parsed))
	for _, c := range parsed {
		params = append(params, &network.CookieParam{
			Name:  c.Name,
			Value: c.Value,
			URL:   u.Scheme + "://" + u.Host,
		})
	}
	return params, nil
}

// bound returns a context for one Run on the tab that ends at timeout or
// when ctx is cancelled, whichever comes first.
func (p *Page) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// URL returns the address the page was opened with.
func (p *Page) URL() string {
	return p.url
}

// Title returns the document title.
func (p *Page) Title(ctx context.Context) (string, error) {
	runCtx, stop := p.bound(ctx, p.elementTimeout)
	defer stop()

	var title string
	if err := chromedp.Run(runCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// ScreenshotElement captures the first element matching the CSS locator and
// writes it as PNG to path, creating parent directories.
func (p *Page) ScreenshotElement(ctx context.Context, locator, path string) error {
	if locator == "" {
		return ErrEmptyLocator
	}

	runCtx, stop := p.bound(ctx, p.elementTimeout)
	defer stop()

	var buf []byte
	err := chromedp.Run(runCtx, chromedp.Screenshot(locator, &buf, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w %q after %s", ErrElementTimeout, locator, p.elementTimeout)
		}
		return fmt.Errorf("failed to capture %q: %w", locator, err)
	}

	if err := writePNG(path, buf); err != nil {
		return err
	}
	p.logger.Debug("element captured", "locator", locator, "path", path, "bytes", len(buf))
	return nil
}

// writePNG stores image data, creating parent directories.
func writePNG(path string, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyScreenshot
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// Close closes the tab.
func (p *Page) Close() {
	p.cancel()
}
