package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeIO          ErrorType = "io"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a classified failure with an optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("%s error: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// FromStatus classifies a non-2xx HTTP status code
func FromStatus(code int) *Error {
	errType := ErrorTypeUnknown
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		errType = ErrorTypeNotFound
	case code == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case code >= 500:
		errType = ErrorTypeServerError
	case code >= 400:
		errType = ErrorTypeClientError
	}
	return &Error{Type: errType, Message: http.StatusText(code), Code: code}
}

// TypeOf returns the ErrorType carried anywhere in err's chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// PageFetchError reports that a page could not be fetched or parsed.
// Under the default policy it ends the crawl of Seed.
type PageFetchError struct {
	URL  string
	Seed string
	Err  error
}

func (e *PageFetchError) Error() string {
	return fmt.Sprintf("page %s: %v", e.URL, e.Err)
}

func (e *PageFetchError) Unwrap() error { return e.Err }

// ItemFetchError reports that a single image could not be downloaded or saved.
// Index is the quota slot the item would have taken.
type ItemFetchError struct {
	URL   string
	Index int
	Err   error
}

func (e *ItemFetchError) Error() string {
	return fmt.Sprintf("image %s: %v", e.URL, e.Err)
}

func (e *ItemFetchError) Unwrap() error { return e.Err }

// IsPageFetch reports whether err is or wraps a PageFetchError
func IsPageFetch(err error) bool {
	var pe *PageFetchError
	return stderrors.As(err, &pe)
}

// IsItemFetch reports whether err is or wraps an ItemFetchError
func IsItemFetch(err error) bool {
	var ie *ItemFetchError
	return stderrors.As(err, &ie)
}
