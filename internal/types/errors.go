package types

import "fmt"

const (
	CodeValidation      = "VALIDATION"
	CodeInvalidURL      = "INVALID_URL"
	CodeTabCreateFailed = "TAB_CREATE_FAILED"
	CodeTabLoadTimeout  = "TAB_LOAD_TIMEOUT"
	CodeTabNotFound     = "TAB_NOT_FOUND"
	CodeChannelTimeout  = "CHANNEL_TIMEOUT"
	CodeChannelFailure  = "CHANNEL_FAILURE"
	CodeCDPUnavailable  = "CDP_UNAVAILABLE"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// NewError builds a CodedError; cause may be nil.
func NewError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}
