// Package browser fetches pages that need a real browser (Indeed renders its
// job data into the page). One Chromium instance serves the whole run.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
	"github.com/MichaelPico/job-offer-analyzer/internal/fetch"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Fetcher loads a URL in a fresh tab and returns the rendered HTML.
type Fetcher struct {
	pw            *playwright.Playwright
	browser       playwright.Browser
	bctx          playwright.BrowserContext
	timeout       time.Duration
	screenshotDir string
	logger        *slog.Logger
}

// NewFetcher starts Playwright and opens a headless (or headed) Chromium
// context carrying the configured cookies and user agent.
func NewFetcher(cfg config.Fetch, logger *slog.Logger) (*Fetcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	opts := playwright.BrowserNewContextOptions{
		Locale: playwright.String("fr-FR"),
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = playwright.String(cfg.UserAgent)
	}
	bctx, err := browser.NewContext(opts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("create browser context: %w", err)
	}

	f := &Fetcher{
		pw:            pw,
		browser:       browser,
		bctx:          bctx,
		timeout:       cfg.Timeout,
		screenshotDir: cfg.ScreenshotDir,
		logger:        logger,
	}
	if f.timeout <= 0 {
		f.timeout = fetch.DefaultTimeout
	}

	cookies, err := LoadCookies(cfg.CookiesPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			f.Close()
			return nil, fmt.Errorf("add cookies: %w", err)
		}
		logger.Info("🍪 cookies loaded", "path", cfg.CookiesPath, "count", len(cookies))
	}

	logger.Info("🌐 browser ready", "headless", cfg.Headless)
	return f, nil
}

// Fetch navigates to url and returns the page HTML once the DOM is loaded.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	//playwright calls do not take a context; closing the tab aborts navigation
	stop := context.AfterFunc(ctx, func() { page.Close() })
	defer stop()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.timeout.Milliseconds())),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		f.capture(page, "goto_failed")
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if resp != nil && (resp.Status() < 200 || resp.Status() >= 300) {
		f.capture(page, fmt.Sprintf("status_%d", resp.Status()))
		return "", &fetch.StatusError{StatusCode: resp.Status(), URL: url}
	}

	content, err := page.Content()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read content of %s: %w", url, err)
	}
	return content, nil
}

// capture saves a full-page screenshot for debugging a failed fetch.
func (f *Fetcher) capture(page playwright.Page, name string) {
	if f.screenshotDir == "" {
		return
	}
	if err := os.MkdirAll(f.screenshotDir, 0755); err != nil {
		f.logger.Warn("⚠️ Failed to create screenshot directory", "error", err)
		return
	}
	path := filepath.Join(f.screenshotDir, ScreenshotName(name, time.Now()))
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		f.logger.Warn("⚠️ Failed to capture screenshot", "error", err)
		return
	}
	f.logger.Info("📸 Screenshot saved", "path", path)
}

// ScreenshotName builds a filesystem safe, timestamped png name.
func ScreenshotName(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s.png", unsafeName.ReplaceAllString(name, "_"), at.Format("2006-01-02_15-04-05"))
}

// Close shuts down the context, the browser and the driver.
func (f *Fetcher) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.bctx != nil {
		keep(f.bctx.Close())
	}
	if f.browser != nil {
		keep(f.browser.Close())
	}
	if f.pw != nil {
		keep(f.pw.Stop())
	}
	return firstErr
}
