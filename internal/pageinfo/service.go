// Package pageinfo composes tab lifecycle, messaging, retry, extraction,
// and caching into the product-lookup pipeline.
package pageinfo

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dgnsrekt/price_agent/internal/cache"
	"github.com/dgnsrekt/price_agent/internal/extract"
	"github.com/dgnsrekt/price_agent/internal/retry"
	"github.com/dgnsrekt/price_agent/internal/sanitize"
	"github.com/dgnsrekt/price_agent/internal/tabsession"
	"github.com/dgnsrekt/price_agent/internal/types"
)

// Tabs is the slice of the tab controller the service needs.
type Tabs interface {
	With(ctx context.Context, url string, budget time.Duration, fn func(context.Context, *tabsession.Handle) error) error
	ActiveTab(ctx context.Context) (*tabsession.Handle, error)
	Destroy(ctx context.Context, h *tabsession.Handle)
}

// Messenger asks the in-page responder for product data.
type Messenger interface {
	GetPageInfo(ctx context.Context, target string) (types.PageInfo, error)
}

// Config carries the pipeline knobs.
type Config struct {
	TabLoadTimeout time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	ResultTTL      time.Duration
	ThrottleWindow time.Duration
}

// Service runs product lookups against ephemeral browser tabs.
type Service struct {
	tabs     Tabs
	msgr     Messenger
	results  *cache.Store[types.PageInfo]
	throttle *cache.Store[struct{}]
	cfg      Config

	// release frees per-target messaging state before the tab closes.
	// Optional.
	release func(ctx context.Context, targetID string)
}

func NewService(tabs Tabs, msgr Messenger, results *cache.Store[types.PageInfo], cfg Config) *Service {
	return &Service{
		tabs:     tabs,
		msgr:     msgr,
		results:  results,
		throttle: cache.NewStore[struct{}](),
		cfg:      cfg,
	}
}

// SetReleaser installs a hook that runs after messaging finishes for a tab,
// before the tab itself is destroyed.
func (s *Service) SetReleaser(release func(ctx context.Context, targetID string)) {
	s.release = release
}

// FetchPageInfo resolves product title and price for url. Exhausting every
// retry is not an error: the caller gets a degraded result carrying the
// not-found sentinel instead.
func (s *Service) FetchPageInfo(ctx context.Context, rawURL string) (types.PageInfo, error) {
	if err := validateURL(rawURL); err != nil {
		return types.PageInfo{}, err
	}

	if cached, ok := s.results.Get(rawURL); ok {
		slog.Debug("page info served from cache", "url", rawURL)
		return cached, nil
	}
	if _, throttled := s.throttle.Get(rawURL); throttled {
		slog.Debug("fetch throttled", "url", rawURL)
		return fallback(rawURL), nil
	}
	s.throttle.Set(rawURL, struct{}{}, s.cfg.ThrottleWindow)

	var res retry.Result[types.PageInfo]
	err := s.tabs.With(ctx, rawURL, s.cfg.TabLoadTimeout, func(ctx context.Context, h *tabsession.Handle) error {
		targetID := string(h.ID)
		if s.release != nil {
			defer s.release(ctx, targetID)
		}
		res = retry.Run(ctx, s.policy(), func(ctx context.Context) (types.PageInfo, error) {
			return s.msgr.GetPageInfo(ctx, targetID)
		})
		return nil
	})
	if err != nil {
		return types.PageInfo{}, err
	}

	info := s.resolve(res, rawURL)
	if res.Accepted {
		s.results.Set(rawURL, info, s.cfg.ResultTTL)
	}
	return info, nil
}

// GetCurrentTabInfo runs the same retry and refinement pipeline against the
// already-open active tab. The tab is borrowed, not created, and stays open.
func (s *Service) GetCurrentTabInfo(ctx context.Context) (types.PageInfo, error) {
	h, err := s.tabs.ActiveTab(ctx)
	if err != nil {
		return types.PageInfo{}, err
	}
	defer s.tabs.Destroy(ctx, h)

	targetID := string(h.ID)
	if s.release != nil {
		defer s.release(ctx, targetID)
	}
	res := retry.Run(ctx, s.policy(), func(ctx context.Context) (types.PageInfo, error) {
		return s.msgr.GetPageInfo(ctx, targetID)
	})
	return s.resolve(res, h.URL), nil
}

// ExtractPrice pulls a price string out of free text. The sentinel comes
// back when no pattern family matches.
func (s *Service) ExtractPrice(text string) (string, bool) {
	if price, ok := extract.FromText(text); ok {
		return price, true
	}
	return types.PriceNotFound, false
}

// ExtractStructuredPrice searches a decoded structured-data graph.
func (s *Service) ExtractStructuredPrice(node any) (string, bool) {
	if price, ok := extract.FromStructured(node); ok {
		return price, true
	}
	return types.PriceNotFound, false
}

// SanitizeProduct cleans a record field by field. Rejection is all or
// nothing and surfaces as a VALIDATION error.
func (s *Service) SanitizeProduct(p types.Product) (types.Product, error) {
	clean, ok := sanitize.Product(p)
	if !ok {
		return types.Product{}, types.NewError(types.CodeValidation, "product rejected by sanitizer", nil)
	}
	return clean, nil
}

// CacheStats reports the memoization cache state.
func (s *Service) CacheStats() cache.Stats {
	return s.results.Stats()
}

func (s *Service) policy() retry.Policy[types.PageInfo] {
	return retry.Policy[types.PageInfo]{
		MaxAttempts: s.cfg.MaxAttempts,
		BaseDelay:   s.cfg.RetryBaseDelay,
		Accept: func(info types.PageInfo) bool {
			if info.Price == "" || info.Price == types.PriceNotFound {
				return false
			}
			// Responders render "Loading" or "Loading..." while still busy.
			return !strings.HasPrefix(info.Price, types.PriceLoading)
		},
		Candidate: func(info types.PageInfo) bool {
			return info.HasTitle()
		},
	}
}

// resolve turns a retry result into the caller-facing record: accepted
// responses get refined, candidates get degraded to the sentinel, and empty
// results become a synthesized fallback for the requested URL.
func (s *Service) resolve(res retry.Result[types.PageInfo], rawURL string) types.PageInfo {
	if !res.HasCandidate {
		slog.Debug("fetch exhausted without candidate", "url", rawURL, "attempts", len(res.Attempts))
		return fallback(rawURL)
	}

	info := res.Value
	info.Title = sanitize.Title(info.Title)
	info.URL = sanitize.URL(info.URL)
	if info.URL == "" {
		info.URL = rawURL
	}

	if res.Accepted {
		info.Price = refinePrice(info.Price)
	} else {
		info.Price = types.PriceNotFound
	}
	return info
}

// refinePrice validates an accepted price, falling back to pattern
// extraction when the raw string fails validation (e.g. "Was $49.99, now
// $29.99" or surrounding prose).
func refinePrice(raw string) string {
	price := sanitize.Price(raw)
	if sanitize.IsValidPrice(price) && sanitize.IsRealistic(price) {
		return price
	}
	if extracted, ok := extract.FromText(price); ok {
		if sanitize.IsValidPrice(extracted) && sanitize.IsRealistic(extracted) {
			return extracted
		}
	}
	return types.PriceNotFound
}

func fallback(rawURL string) types.PageInfo {
	return types.PageInfo{
		Price: types.PriceNotFound,
		URL:   rawURL,
	}
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return types.NewError(types.CodeInvalidURL, "unparseable url", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.NewError(types.CodeInvalidURL, "url must be absolute http(s)", nil)
	}
	return nil
}
