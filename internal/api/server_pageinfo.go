package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/price_agent/internal/types"
)

func registerPageInfoHandlers(api huma.API, svc Service) {
	type pageInfoOutput struct {
		Body types.PageInfo
	}

	huma.Register(api, huma.Operation{OperationID: "fetch-page-info", Method: http.MethodPost, Path: "/api/v1/page-info", Summary: "Fetch product title and price for a URL", Tags: []string{"PageInfo"}},
		func(ctx context.Context, input *struct {
			Body struct {
				URL string `json:"url" required:"true" doc:"Absolute http(s) product page URL"`
			}
		}) (*pageInfoOutput, error) {
			info, err := svc.FetchPageInfo(ctx, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageInfoOutput{}
			out.Body = info
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-current-page-info", Method: http.MethodGet, Path: "/api/v1/page-info/current", Summary: "Read product data from the currently active tab", Tags: []string{"PageInfo"}},
		func(ctx context.Context, input *struct{}) (*pageInfoOutput, error) {
			info, err := svc.GetCurrentTabInfo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pageInfoOutput{}
			out.Body = info
			return out, nil
		})
}
