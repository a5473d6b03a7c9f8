// Package tabsession manages ephemeral browser tabs: creation with a
// readiness budget, guaranteed best-effort destruction, and a scoped
// acquisition helper that pairs every create with exactly one destroy.
package tabsession

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/dgnsrekt/price_agent/internal/types"
)

// Provider supplies the underlying rendering contexts.
type Provider interface {
	Create(ctx context.Context, url string) (target.ID, error)
	Remove(ctx context.Context, id target.ID) error
	Query(ctx context.Context) ([]*target.Info, error)
}

// ReadyFunc probes whether the page in a target can answer messages yet.
// A nil error means ready.
type ReadyFunc func(ctx context.Context, id target.ID) error

// Controller owns tab lifecycles.
type Controller struct {
	provider     Provider
	ready        ReadyFunc
	pollInterval time.Duration
}

func NewController(provider Provider, ready ReadyFunc) *Controller {
	return &Controller{
		provider:     provider,
		ready:        ready,
		pollInterval: 250 * time.Millisecond,
	}
}

// Create opens a background tab for url and waits up to budget for the
// in-page responder to report ready. On readiness timeout the tab is
// removed before the error is returned, so no created context ever
// outlives a failed Create.
func (c *Controller) Create(ctx context.Context, url string, budget time.Duration) (*Handle, error) {
	h := &Handle{URL: url, owned: true, status: StatusCreating}

	id, err := c.provider.Create(ctx, url)
	if err != nil {
		return nil, types.NewError(types.CodeTabCreateFailed, "provider refused tab for "+url, err)
	}
	h.ID = id
	h.CreatedAt = time.Now()
	slog.Debug("tab created", "target_id", id, "url", url)

	if err := c.awaitReady(ctx, id, budget); err != nil {
		c.Destroy(ctx, h)
		return nil, err
	}

	h.advance(StatusActive)
	return h, nil
}

func (c *Controller) awaitReady(ctx context.Context, id target.ID, budget time.Duration) error {
	deadline := time.After(budget)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// Probe immediately, then on each tick.
	if err := c.probe(ctx, id); err == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return types.NewError(types.CodeTabLoadTimeout, "canceled while waiting for readiness", ctx.Err())
		case <-deadline:
			return types.NewError(types.CodeTabLoadTimeout, "no readiness signal within "+budget.String(), nil)
		case <-ticker.C:
			if err := c.probe(ctx, id); err == nil {
				return nil
			}
		}
	}
}

func (c *Controller) probe(ctx context.Context, id target.ID) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.pollInterval*4)
	defer cancel()
	return c.ready(probeCtx, id)
}

// BeginMessaging marks the handle as actively exchanging messages.
func (c *Controller) BeginMessaging(h *Handle) {
	h.advance(StatusMessaging)
}

// Destroy closes the tab. Idempotent and best-effort: provider failures are
// logged and swallowed, never re-raised, and a handle reaches closed exactly
// once no matter how many callers race here. Borrowed handles are released
// without closing the underlying tab.
func (c *Controller) Destroy(ctx context.Context, h *Handle) {
	if h == nil {
		return
	}
	if !h.advance(StatusClosing) {
		return // already closed
	}

	if h.owned {
		// Cleanup proceeds even when the surrounding fetch was canceled.
		removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.provider.Remove(removeCtx, h.ID); err != nil {
			slog.Warn("tab remove failed", "target_id", h.ID, "error", err)
		}
	}

	h.advance(StatusClosed)
	slog.Debug("tab closed", "target_id", h.ID, "owned", h.owned)
}

// With runs fn against a freshly created tab and guarantees Destroy on
// every exit path, including panics inside fn.
func (c *Controller) With(ctx context.Context, url string, budget time.Duration, fn func(context.Context, *Handle) error) error {
	h, err := c.Create(ctx, url, budget)
	if err != nil {
		return err
	}
	defer c.Destroy(ctx, h)

	c.BeginMessaging(h)
	return fn(ctx, h)
}

// ActiveTab borrows the currently focused page tab without taking
// ownership; destroying the returned handle will not close the tab.
func (c *Controller) ActiveTab(ctx context.Context) (*Handle, error) {
	targets, err := c.provider.Query(ctx)
	if err != nil {
		return nil, types.NewError(types.CodeCDPUnavailable, "target query failed", err)
	}
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if !strings.HasPrefix(t.URL, "http://") && !strings.HasPrefix(t.URL, "https://") {
			continue
		}
		return &Handle{
			ID:        t.TargetID,
			URL:       t.URL,
			CreatedAt: time.Now(),
			status:    StatusActive,
		}, nil
	}
	return nil, types.NewError(types.CodeTabNotFound, "no active page tab", nil)
}
