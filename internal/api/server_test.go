package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/price_agent/internal/types"
)

func TestMapErrStatusCodes(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{types.CodeValidation, http.StatusBadRequest},
		{types.CodeInvalidURL, http.StatusBadRequest},
		{types.CodeTabNotFound, http.StatusNotFound},
		{types.CodeTabLoadTimeout, http.StatusGatewayTimeout},
		{types.CodeChannelTimeout, http.StatusGatewayTimeout},
		{types.CodeTabCreateFailed, http.StatusBadGateway},
		{types.CodeCDPUnavailable, http.StatusBadGateway},
		{types.CodeChannelFailure, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := mapErr(types.NewError(tc.code, "boom", nil))
		var se huma.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("mapErr(%s) = %v, want StatusError", tc.code, err)
		}
		if se.GetStatus() != tc.want {
			t.Fatalf("mapErr(%s) status = %d, want %d", tc.code, se.GetStatus(), tc.want)
		}
	}
}

func TestMapErrPassesNil(t *testing.T) {
	if err := mapErr(nil); err != nil {
		t.Fatalf("mapErr(nil) = %v", err)
	}
}

func TestMapErrWrapsPlainError(t *testing.T) {
	err := mapErr(errors.New("plain"))
	var se huma.StatusError
	if !errors.As(err, &se) || se.GetStatus() != http.StatusInternalServerError {
		t.Fatalf("mapErr(plain) = %v, want 500", err)
	}
}
