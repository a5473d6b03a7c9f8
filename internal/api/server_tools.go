package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/price_agent/internal/cache"
	"github.com/dgnsrekt/price_agent/internal/types"
)

func registerToolHandlers(api huma.API, svc Service) {
	type extractOutput struct {
		Body struct {
			Price string `json:"price"`
			Found bool   `json:"found"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "extract-price", Method: http.MethodPost, Path: "/api/v1/price/extract", Summary: "Extract a price string from text or structured data", Tags: []string{"Tools"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Text       string          `json:"text,omitempty" doc:"Free text to scan for a price"`
				Structured json.RawMessage `json:"structured,omitempty" doc:"Optional JSON-LD style object to search instead of text"`
			}
		}) (*extractOutput, error) {
			out := &extractOutput{}
			if len(input.Body.Structured) > 0 {
				var node any
				if err := json.Unmarshal(input.Body.Structured, &node); err != nil {
					return nil, huma.Error400BadRequest("structured must be valid JSON")
				}
				out.Body.Price, out.Body.Found = svc.ExtractStructuredPrice(node)
				return out, nil
			}
			out.Body.Price, out.Body.Found = svc.ExtractPrice(input.Body.Text)
			return out, nil
		})

	type productOutput struct {
		Body types.Product
	}

	huma.Register(api, huma.Operation{OperationID: "sanitize-product", Method: http.MethodPost, Path: "/api/v1/product/sanitize", Summary: "Sanitize a product record, rejecting it wholesale on failure", Tags: []string{"Tools"}},
		func(ctx context.Context, input *struct {
			Body types.Product
		}) (*productOutput, error) {
			clean, err := svc.SanitizeProduct(input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &productOutput{}
			out.Body = clean
			return out, nil
		})

	type cacheStatsOutput struct {
		Body cache.Stats
	}

	huma.Register(api, huma.Operation{OperationID: "cache-stats", Method: http.MethodGet, Path: "/api/v1/cache/stats", Summary: "Report result cache statistics", Tags: []string{"Tools"}},
		func(ctx context.Context, input *struct{}) (*cacheStatsOutput, error) {
			out := &cacheStatsOutput{}
			out.Body = svc.CacheStats()
			return out, nil
		})

	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "healthz", Method: http.MethodGet, Path: "/healthz", Summary: "Liveness check", Tags: []string{"Tools"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}
