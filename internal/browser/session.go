package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// closeTimeout bounds a graceful browser shutdown before the process tree is
// killed.
const closeTimeout = 5 * time.Second

// Options configures the browser process.
type Options struct {
	// ExecPath is the Chrome or Chromium binary. Empty lets chromedp search
	// the usual locations.
	ExecPath string

	// Headless runs the browser without a window.
	Headless bool

	// NoSandbox disables the Chrome sandbox, which containers usually need.
	NoSandbox bool

	// UserAgent overrides the browser user agent.
	UserAgent string

	// ProxyServer routes browser traffic through a proxy.
	ProxyServer string
}

// DefaultOptions returns options for a headless, container-friendly browser.
func DefaultOptions() Options {
	return Options{
		Headless:  true,
		NoSandbox: true,
	}
}

// allocatorOptions translates Options to chromedp allocator flags.
func allocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+8)
	for _, opt := range chromedp.DefaultExecAllocatorOptions {
		opts = append(opts, opt)
	}
	if !o.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	opts = append(opts,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if o.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}
	if o.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(o.UserAgent))
	}
	if o.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(o.ProxyServer))
	}
	return opts
}

// Session is a running browser process.
type Session struct {
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	logger        *slog.Logger
}

// Open launches a browser. The browser lives until Close is called or ctx
// is cancelled.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:           browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		logger:        logger,
	}

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("browser started", "execPath", opts.ExecPath, "headless", opts.Headless)
	return s, nil
}

// Close shuts the browser down, killing it if a graceful shutdown takes
// longer than five seconds.
func (s *Session) Close() {
	// The process reference is gone once the contexts are cancelled.
	var proc *os.Process
	if c := chromedp.FromContext(s.ctx); c != nil && c.Browser != nil {
		proc = c.Browser.Process()
	}

	done := make(chan struct{})
	go func() {
		s.cancelBrowser()
		s.cancelAlloc()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(closeTimeout):
		killProcessTree(proc)
		s.logger.Warn("browser shutdown timed out, killed process tree")
	}
}
