package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequestInFlight is returned when a recommendation run is already
	// running for the same session.
	ErrRequestInFlight = errors.New("a recommendation request is already in progress")

	// ErrCatalogUnavailable means the catalog circuit breaker is open.
	ErrCatalogUnavailable = errors.New("movie catalog is temporarily unavailable")

	ErrSessionNotFound = errors.New("session not found")
)

// ConfigurationError reports a missing credential or setting.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Setting)
}

// UpstreamHTTPError is a non-2xx answer from the model or the catalog API.
type UpstreamHTTPError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamHTTPError) Error() string {
	if e == nil {
		return "upstream HTTP error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s API error: status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Service, e.StatusCode, body)
}

// UpstreamParseError is a response that could not be decoded into the
// expected shape. Err keeps the cause for logs; the message stays generic.
type UpstreamParseError struct {
	Service string
	Err     error
}

func (e *UpstreamParseError) Error() string {
	return fmt.Sprintf("%s returned a response that could not be understood", e.Service)
}

func (e *UpstreamParseError) Unwrap() error { return e.Err }

// ValidationError is user input the flow cannot work with. It is shown inline.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsUpstreamParseError(err error) bool {
	var target *UpstreamParseError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// AsUpstreamHTTPError extracts an *UpstreamHTTPError from err's chain.
func AsUpstreamHTTPError(err error) (*UpstreamHTTPError, bool) {
	var target *UpstreamHTTPError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Excerpt trims s to at most n bytes without splitting a UTF-8 sequence.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
