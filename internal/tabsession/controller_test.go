package tabsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/dgnsrekt/price_agent/internal/types"
)

type countingProvider struct {
	mu        sync.Mutex
	creates   int
	removes   int
	createErr error
	removeErr error
	targets   []*target.Info
}

func (p *countingProvider) Create(ctx context.Context, url string) (target.ID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates++
	if p.createErr != nil {
		return "", p.createErr
	}
	return "target-1", nil
}

func (p *countingProvider) Remove(ctx context.Context, id target.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removes++
	return p.removeErr
}

func (p *countingProvider) Query(ctx context.Context) ([]*target.Info, error) {
	return p.targets, nil
}

func (p *countingProvider) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates, p.removes
}

func alwaysReady(ctx context.Context, id target.ID) error { return nil }
func neverReady(ctx context.Context, id target.ID) error  { return errors.New("not ready") }

func fastController(p Provider, ready ReadyFunc) *Controller {
	c := NewController(p, ready)
	c.pollInterval = time.Millisecond
	return c
}

func TestCreateSuccessThenDestroy(t *testing.T) {
	p := &countingProvider{}
	c := fastController(p, alwaysReady)

	h, err := c.Create(context.Background(), "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if h.Status() != StatusActive {
		t.Fatalf("status = %s, want active", h.Status())
	}

	c.Destroy(context.Background(), h)
	if h.Status() != StatusClosed {
		t.Fatalf("status = %s, want closed", h.Status())
	}

	creates, removes := p.counts()
	if creates != 1 || removes != 1 {
		t.Fatalf("creates=%d removes=%d, want 1/1", creates, removes)
	}
}

func TestCreateFailureNeedsNoCleanup(t *testing.T) {
	p := &countingProvider{createErr: errors.New("provider down")}
	c := fastController(p, alwaysReady)

	_, err := c.Create(context.Background(), "https://example.com", time.Second)
	var coded *types.CodedError
	if !errors.As(err, &coded) || coded.Code != types.CodeTabCreateFailed {
		t.Fatalf("err = %v, want TAB_CREATE_FAILED", err)
	}

	_, removes := p.counts()
	if removes != 0 {
		t.Fatalf("removes=%d, want 0 when nothing was created", removes)
	}
}

func TestCreateTimeoutDestroysTab(t *testing.T) {
	p := &countingProvider{}
	c := fastController(p, neverReady)

	_, err := c.Create(context.Background(), "https://example.com", 10*time.Millisecond)
	var coded *types.CodedError
	if !errors.As(err, &coded) || coded.Code != types.CodeTabLoadTimeout {
		t.Fatalf("err = %v, want TAB_LOAD_TIMEOUT", err)
	}

	creates, removes := p.counts()
	if creates != 1 || removes != 1 {
		t.Fatalf("creates=%d removes=%d, want exactly one destroy for the timed-out tab", creates, removes)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	p := &countingProvider{}
	c := fastController(p, alwaysReady)

	h, err := c.Create(context.Background(), "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Destroy(context.Background(), h)
	c.Destroy(context.Background(), h)
	c.Destroy(context.Background(), h)

	_, removes := p.counts()
	if removes != 1 {
		t.Fatalf("removes=%d, want 1 despite repeated Destroy", removes)
	}
}

func TestDestroySwallowsProviderFailure(t *testing.T) {
	p := &countingProvider{removeErr: errors.New("already gone")}
	c := fastController(p, alwaysReady)

	h, err := c.Create(context.Background(), "https://example.com", time.Second)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c.Destroy(context.Background(), h) // must not panic or propagate

	if h.Status() != StatusClosed {
		t.Fatalf("status = %s, want closed even when remove failed", h.Status())
	}
}

func TestWithDestroysOnEveryPath(t *testing.T) {
	cases := []struct {
		name string
		fn   func(context.Context, *Handle) error
	}{
		{"success", func(ctx context.Context, h *Handle) error { return nil }},
		{"error", func(ctx context.Context, h *Handle) error { return errors.New("boom") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &countingProvider{}
			c := fastController(p, alwaysReady)

			_ = c.With(context.Background(), "https://example.com", time.Second, tc.fn)

			creates, removes := p.counts()
			if creates != 1 || removes != 1 {
				t.Fatalf("creates=%d removes=%d, want 1/1", creates, removes)
			}
		})
	}
}

func TestWithMarksHandleMessaging(t *testing.T) {
	p := &countingProvider{}
	c := fastController(p, alwaysReady)

	var seen Status
	_ = c.With(context.Background(), "https://example.com", time.Second, func(ctx context.Context, h *Handle) error {
		seen = h.Status()
		return nil
	})
	if seen != StatusMessaging {
		t.Fatalf("status inside With = %s, want messaging", seen)
	}
}

func TestWithDestroysAfterCancellation(t *testing.T) {
	p := &countingProvider{}
	c := fastController(p, alwaysReady)

	ctx, cancel := context.WithCancel(context.Background())
	_ = c.With(ctx, "https://example.com", time.Second, func(ctx context.Context, h *Handle) error {
		cancel()
		return ctx.Err()
	})

	_, removes := p.counts()
	if removes != 1 {
		t.Fatalf("removes=%d, want cleanup to run despite canceled fetch", removes)
	}
}

func TestActiveTabBorrowsWithoutOwnership(t *testing.T) {
	p := &countingProvider{targets: []*target.Info{
		{TargetID: "bg", Type: "service_worker", URL: "chrome-extension://x"},
		{TargetID: "page-1", Type: "page", URL: "https://shop.example.com/item"},
	}}
	c := fastController(p, alwaysReady)

	h, err := c.ActiveTab(context.Background())
	if err != nil {
		t.Fatalf("ActiveTab: %v", err)
	}
	if h.ID != "page-1" {
		t.Fatalf("picked target %s", h.ID)
	}

	c.Destroy(context.Background(), h)
	_, removes := p.counts()
	if removes != 0 {
		t.Fatalf("borrowed tab was closed (removes=%d)", removes)
	}
	if h.Status() != StatusClosed {
		t.Fatalf("borrowed handle status = %s, want closed", h.Status())
	}
}

func TestActiveTabNoneFound(t *testing.T) {
	p := &countingProvider{targets: []*target.Info{
		{TargetID: "nt", Type: "page", URL: "chrome://newtab"},
	}}
	c := fastController(p, alwaysReady)

	_, err := c.ActiveTab(context.Background())
	var coded *types.CodedError
	if !errors.As(err, &coded) || coded.Code != types.CodeTabNotFound {
		t.Fatalf("err = %v, want TAB_NOT_FOUND", err)
	}
}
