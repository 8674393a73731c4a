// Package browser manages the Chrome sessions the delivery channel drives.
// Each worker gets its own Bridge: separate user-data dir and debug port,
// so the two sessions are two independently logged-in actors.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"
)

const (
	whatsappURL   = "https://web.whatsapp.com"
	debugPortBase = 9222
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Bridge creates chromedp contexts bound to one persistent Chrome profile.
type Bridge struct {
	instance   int
	profileDir string
	headless   bool
	logger     *slog.Logger
}

// BridgeConfig configures a Bridge. ProfileRoot defaults to
// ~/.wablaster/chrome-profiles; the instance number is appended so two
// bridges never share a profile.
type BridgeConfig struct {
	Instance    int // 1 or 2
	ProfileRoot string
	Headless    bool
	Logger      *slog.Logger
}

func NewBridge(cfg BridgeConfig) *Bridge {
	root := cfg.ProfileRoot
	if root == "" {
		root = DefaultProfileRoot()
	}
	return &Bridge{
		instance:   cfg.Instance,
		profileDir: filepath.Join(root, fmt.Sprintf("instance-%d", cfg.Instance)),
		headless:   cfg.Headless,
		logger:     cfg.Logger,
	}
}

// DefaultProfileRoot returns the base directory for Chrome profiles.
func DefaultProfileRoot() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".wablaster", "chrome-profiles")
}

// ProfileDir returns this instance's user-data directory.
func (b *Bridge) ProfileDir() string { return b.profileDir }

// NewContext creates a chromedp context on this bridge's profile. The
// caller MUST call cancel() when done with the session.
func (b *Bridge) NewContext(parent context.Context) (context.Context, context.CancelFunc) {
	if err := os.MkdirAll(b.profileDir, 0o755); err != nil {
		b.logger.Error("cannot create profile dir", "dir", b.profileDir, "err", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(b.profileDir),
		chromedp.Flag("remote-debugging-port", fmt.Sprintf("%d", debugPortBase+b.instance)),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.NoFirstRun,
		chromedp.UserAgent(userAgent),
	)

	if b.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancelAll := func() {
		taskCancel()
		allocCancel()
	}

	b.logger.Info("browser session created", "instance", b.instance, "profile", b.profileDir)
	return taskCtx, cancelAll
}

// Login opens a visible browser on WhatsApp Web so the operator can scan
// the QR code. The session cookie lands in the profile dir and survives
// for later runs. Blocks until ctx is cancelled.
func (b *Bridge) Login(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(b.profileDir),
		chromedp.Flag("remote-debugging-port", fmt.Sprintf("%d", debugPortBase+b.instance)),
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.NoFirstRun,
		chromedp.UserAgent(userAgent),
	)

	if err := os.MkdirAll(b.profileDir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	if err := chromedp.Run(taskCtx, chromedp.Navigate(whatsappURL)); err != nil {
		return fmt.Errorf("open whatsapp web: %w", err)
	}

	b.logger.Info("browser opened, scan the QR code", "instance", b.instance)
	<-ctx.Done()

	b.logger.Info("login session saved", "instance", b.instance, "profile", b.profileDir)
	return nil
}

// Reset deletes the instance's profile dir (forces a fresh QR login).
func (b *Bridge) Reset() error {
	if err := os.RemoveAll(b.profileDir); err != nil {
		return fmt.Errorf("delete profile dir: %w", err)
	}
	b.logger.Info("profile deleted", "instance", b.instance, "profile", b.profileDir)
	return nil
}
