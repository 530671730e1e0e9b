// Package chrome implements the browser.chrome module: headless Chrome page
// captures for screenshot_to_code, driven over the DevTools protocol.
package chrome

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/toolgate/internal/assist"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/security"
)

func init() {
	core.RegisterModule(&Browser{})
}

// Compile-time interface guards.
var (
	_ assist.ScreenshotCapturer = (*Browser)(nil)
	_ core.Module               = (*Browser)(nil)
	_ core.Configurable         = (*Browser)(nil)
	_ core.Provisioner          = (*Browser)(nil)
	_ core.Validator            = (*Browser)(nil)
)

// Browser launches a fresh Chrome per capture.
type Browser struct {
	config Config
	logger *slog.Logger
	filter *security.URLFilter
}

// ModuleInfo implements core.Module.
func (b *Browser) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "browser.chrome",
		New: func() core.Module { return &Browser{} },
	}
}

// Configure implements core.Configurable.
func (b *Browser) Configure(node *yaml.Node) error {
	if err := node.Decode(&b.config); err != nil {
		return err
	}
	b.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (b *Browser) Provision(ctx *core.AppContext) error {
	b.config.defaults()
	b.logger = ctx.Logger
	b.filter = security.NewURLFilter(b.config.AllowedDomains...)
	if b.config.AllowHTTP {
		b.filter.AllowHTTP()
	}
	ctx.RegisterService(assist.BrowserService, b)
	return nil
}

// Validate implements core.Validator.
func (b *Browser) Validate() error {
	return b.config.validate()
}

// Capture implements assist.ScreenshotCapturer. The URL is checked before
// the browser starts and again after navigation, since the page may have
// redirected.
func (b *Browser) Capture(ctx context.Context, url string) (assist.Image, error) {
	if err := b.filter.Check(url); err != nil {
		return assist.Image{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var landed string
	if err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(b.config.Width), int64(b.config.Height)),
		chromedp.Navigate(url),
		chromedp.Location(&landed),
	); err != nil {
		return assist.Image{}, fmt.Errorf("%w: loading %s: %w", assist.ErrScreenshot, url, err)
	}
	if err := b.filter.Check(landed); err != nil {
		return assist.Image{}, fmt.Errorf("redirected: %w", err)
	}

	// Quality 100 makes chromedp emit PNG.
	var buf []byte
	if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return assist.Image{}, fmt.Errorf("%w: capturing %s: %w", assist.ErrScreenshot, url, err)
	}
	b.logger.Debug("page captured", "url", landed, "bytes", len(buf))
	return assist.NewImage(buf)
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", *b.config.Headless),
		chromedp.Flag("disable-gpu", *b.config.Headless),
		chromedp.WindowSize(b.config.Width, b.config.Height),
	)
	if b.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.config.ChromePath))
	}
	return opts
}
