package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// APIError represents a non-success GitHub API response
type APIError struct {
	StatusCode int
	Message    string
	// Path is the API path that was requested
	Path string
	// RateLimited is set when GitHub rejected the request for rate limiting
	RateLimited bool
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GitHub API error: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("GitHub API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ResponseParseError is returned when an API response body cannot be decoded
// or lacks a field the resolver needs.
type ResponseParseError struct {
	Path string
	Err  error
}

func (e *ResponseParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse JSON response from %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to parse JSON response from %s", e.Path)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// InvalidURLError is returned when input is not a recognized GitHub URL
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid GitHub URL format: %q (%s)", e.URL, e.Reason)
	}
	return fmt.Sprintf("invalid GitHub URL format: %q", e.URL)
}

// IsRateLimitError returns true if the error is a rate limit error
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RateLimited || apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsNotFoundError returns true if the error is a not found error
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// translateError maps go-github and encoding/json failures onto the
// package's error types. Transport errors are returned unchanged.
func translateError(path string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &APIError{
			StatusCode:  statusOf(rateErr.Response),
			Message:     rateErr.Message,
			Path:        path,
			RateLimited: true,
		}
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &APIError{
			StatusCode:  statusOf(abuseErr.Response),
			Message:     abuseErr.Message,
			Path:        path,
			RateLimited: true,
		}
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		return &APIError{
			StatusCode: statusOf(respErr.Response),
			Message:    respErr.Message,
			Path:       path,
		}
	}

	// 202 Accepted is a success status for go-github but not for us
	var acceptedErr *github.AcceptedError
	if errors.As(err, &acceptedErr) {
		return &APIError{
			StatusCode: http.StatusAccepted,
			Message:    "request accepted but not yet processed",
			Path:       path,
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ResponseParseError{Path: path, Err: err}
	}

	return fmt.Errorf("request to %s failed: %w", path, err)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
