package tabsession

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// ChromeProvider implements Provider on a running browser's CDP endpoint
// via chromedp's remote allocator.
type ChromeProvider struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
}

func NewChromeProvider() *ChromeProvider {
	return &ChromeProvider{}
}

// Connect attaches to the browser at cdpURL and verifies the connection.
func (p *ChromeProvider) Connect(ctx context.Context, cdpURL string) error {
	_ = ctx
	slog.Info("connecting to browser", "url", cdpURL)

	p.allocCtx, p.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	p.browserCtx, p.browserStop = chromedp.NewContext(p.allocCtx)

	if err := chromedp.Run(p.browserCtx); err != nil {
		p.Close()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	return nil
}

func (p *ChromeProvider) Create(ctx context.Context, url string) (target.ID, error) {
	var id target.ID
	err := chromedp.Run(p.browserCtx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		var err error
		id, err = target.CreateTarget(url).WithBackground(true).Do(cdpCtx)
		return err
	}))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *ChromeProvider) Remove(ctx context.Context, id target.ID) error {
	return chromedp.Run(p.browserCtx, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		return target.CloseTarget(id).Do(cdpCtx)
	}))
}

func (p *ChromeProvider) Query(ctx context.Context) ([]*target.Info, error) {
	return chromedp.Targets(p.browserCtx)
}

func (p *ChromeProvider) Close() {
	if p.browserStop != nil {
		p.browserStop()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	slog.Info("browser provider closed")
}
