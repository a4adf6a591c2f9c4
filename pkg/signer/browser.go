package signer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// ErrNotInitialized is returned by BrowserSigner.Sign before Init or after Close.
var ErrNotInitialized = errors.New("browser signer not initialized")

// verifyFpCookie holds the verification token once the page has loaded.
const verifyFpCookie = "s_v_web_id"

// signScript runs the platform's own request signer inside the page.
const signScript = `(url) => window.byted_acrawler.sign({ url: url })`

// BrowserConfig configures the headless browser signer.
type BrowserConfig struct {
	// Bin is the browser executable. Empty means look it up on the system.
	Bin string

	// Headless runs the browser without a window.
	Headless bool

	// PageURL is loaded once at Init; its scripts provide the signing function.
	PageURL string

	// Timeout bounds page loads and each signing call.
	Timeout time.Duration
}

// DefaultBrowserConfig returns a headless configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless: true,
		PageURL:  "https://www.tiktok.com/@rihanna?lang=en",
		Timeout:  30 * time.Second,
	}
}

// LookupBrowser returns the browser executable to use and whether one exists.
func LookupBrowser(bin string) (string, bool) {
	if bin != "" {
		if _, err := os.Stat(bin); err != nil {
			return "", false
		}
		return bin, true
	}
	return launcher.LookPath()
}

// BrowserSigner signs URLs inside a stealth page of a local browser. It must
// be initialized once with Init and released with Close. Calls are serialized
// because the page session is not safe for concurrent evaluation.
type BrowserSigner struct {
	cfg    BrowserConfig
	logger zerolog.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewBrowserSigner creates an uninitialized browser signer.
func NewBrowserSigner(cfg BrowserConfig, logger zerolog.Logger) *BrowserSigner {
	def := DefaultBrowserConfig()
	if cfg.PageURL == "" {
		cfg.PageURL = def.PageURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	return &BrowserSigner{
		cfg:    cfg,
		logger: logger,
	}
}

// Mode implements moder.
func (b *BrowserSigner) Mode() string {
	return ModeBrowser
}

// Init launches the browser and loads the signing page. Calling Init on an
// initialized signer is a no-op.
func (b *BrowserSigner) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page != nil {
		return nil
	}

	path, ok := LookupBrowser(b.cfg.Bin)
	if !ok {
		return fmt.Errorf("%w: no local browser installed for signing; configure a signature service instead",
			ErrSignatureUnavailable)
	}

	// The launcher outlives ctx; only page loads are bound to it.
	l := launcher.New().
		Bin(path).
		Leakless(false).
		Headless(b.cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: launch browser: %v", ErrSignatureUnavailable, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: connect browser: %v", ErrSignatureUnavailable, err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		l.Cleanup()
		return fmt.Errorf("%w: create stealth page: %v", ErrSignatureUnavailable, err)
	}

	if err := page.Context(ctx).Timeout(b.cfg.Timeout).Navigate(b.cfg.PageURL); err != nil {
		browser.Close()
		l.Cleanup()
		return fmt.Errorf("%w: load signing page: %v", ErrSignatureUnavailable, err)
	}
	if err := page.Context(ctx).Timeout(b.cfg.Timeout).WaitLoad(); err != nil {
		browser.Close()
		l.Cleanup()
		return fmt.Errorf("%w: wait for signing page: %v", ErrSignatureUnavailable, err)
	}

	b.launcher = l
	b.browser = browser
	b.page = page

	b.logger.Info().
		Str("bin", path).
		Bool("headless", b.cfg.Headless).
		Str("page", b.cfg.PageURL).
		Msg("Browser signer started")

	return nil
}

// Sign evaluates the page's signing function for rawURL and reads the
// verification token cookie.
func (b *BrowserSigner) Sign(ctx context.Context, rawURL string) (Signature, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.page == nil {
		return Signature{}, fmt.Errorf("%w: %w", ErrSignatureUnavailable, ErrNotInitialized)
	}

	page := b.page.Context(ctx).Timeout(b.cfg.Timeout)

	res, err := page.Eval(signScript, rawURL)
	if err != nil {
		return Signature{}, fmt.Errorf("evaluate signing function: %w", err)
	}

	sig := Signature{Value: res.Value.String()}

	cookies, err := page.Cookies([]string{b.cfg.PageURL})
	if err != nil {
		// The token is optional; the signature alone is still usable.
		b.logger.Warn().Err(err).Msg("Failed to read verification cookie")
		return sig, nil
	}
	for _, c := range cookies {
		if c.Name == verifyFpCookie {
			sig.VerifyFp = c.Value
			break
		}
	}

	return sig, nil
}

// Close shuts the browser down. Closing an uninitialized signer is a no-op.
func (b *BrowserSigner) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}

	err := b.browser.Close()
	b.launcher.Cleanup()

	b.browser = nil
	b.page = nil
	b.launcher = nil

	b.logger.Info().Msg("Browser signer closed")

	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
