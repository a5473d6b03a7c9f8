// Package api exposes the price agent over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/price_agent/internal/cache"
	"github.com/dgnsrekt/price_agent/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	FetchPageInfo(ctx context.Context, url string) (types.PageInfo, error)
	GetCurrentTabInfo(ctx context.Context) (types.PageInfo, error)
	ExtractPrice(text string) (string, bool)
	ExtractStructuredPrice(node any) (string, bool)
	SanitizeProduct(p types.Product) (types.Product, error)
	CacheStats() cache.Stats
}

func NewServer(svc Service) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Price Agent API", "1.0.0")
	api := humachi.New(router, cfg)

	registerPageInfoHandlers(api, svc)
	registerToolHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case types.CodeValidation, types.CodeInvalidURL:
			return huma.Error400BadRequest(coded.Message)
		case types.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		case types.CodeTabLoadTimeout, types.CodeChannelTimeout:
			return huma.Error504GatewayTimeout(coded.Message)
		case types.CodeTabCreateFailed, types.CodeCDPUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
