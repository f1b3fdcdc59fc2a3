package fleet

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a non-2xx response from the fleet API. The body is
// carried verbatim; the API returns plain-text messages for most failures.
type APIError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Body       string `json:"body"        yaml:"body"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}

	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is places APIError in the transport failure category.
func (e *APIError) Is(target error) bool {
	return target == ErrTransport
}

// TransportError wraps a network level failure issuing a request: connection
// refused, DNS, timeout. The cause stays unwrappable so callers can still
// match context.DeadlineExceeded and friends.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is places TransportError in the transport failure category.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Sentinel errors for the failure taxonomy. Each structured error type below
// wraps one of these so callers can branch with errors.Is.
// Static errors for err113 compliance.
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotLoggedIn          = errors.New("not logged in")
	ErrMalformedToken       = errors.New("malformed token")
	ErrInvalidFilter        = errors.New("invalid filter")
	ErrInvalidOption        = errors.New("invalid option")
	ErrTransport            = errors.New("transport failure")
	ErrDecodeInconsistency  = errors.New("decode inconsistency")
)

// Common static errors that can be wrapped with context.
var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDeviceNotFound       = errors.New("device not found")
	ErrAmbiguousDevice      = errors.New("multiple devices match the supplied uuid prefix")
	ErrReleaseNotFound      = errors.New("release not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDeviceTypeNotFound   = errors.New("device type not found")
	ErrKeyNotFound          = errors.New("key not found")
	ErrAPIKeyNotFound       = errors.New("api key not found")
	ErrVariableNotFound     = errors.New("environment variable not found")
	ErrTagNotFound          = errors.New("tag not found")
	ErrDeviceOffline        = errors.New("device is offline")
	ErrConfigRequired       = errors.New("config is required")
	ErrUnknownResource      = errors.New("unknown resource")
	ErrTwoFactorNotEnabled  = errors.New("two-factor authentication is not enabled for this account")
	ErrCacheDisabled        = errors.New("cache disabled")
	ErrCacheMiss            = errors.New("cache entry not found")
	ErrCacheExpired         = errors.New("cache entry expired")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType = errors.New("unsupported cache type")
)

// FilterError reports a filter node that cannot be compiled.
type FilterError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid filter: %s", e.Reason)
	}

	return fmt.Sprintf("invalid filter on %q: %s", e.Field, e.Reason)
}

// Unwrap ties FilterError into the taxonomy for errors.Is.
func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

// OptionError reports a query option rejected before any request is issued.
type OptionError struct {
	Option string
	Value  any
	Reason string
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid option %s: %s", e.Option, e.Reason)
	}

	return fmt.Sprintf("invalid option %s=%v: %s", e.Option, e.Value, e.Reason)
}

// Unwrap ties OptionError into the taxonomy for errors.Is.
func (e *OptionError) Unwrap() error {
	return ErrInvalidOption
}

// DecodeError reports a response record that violates the foreign-key shape
// the schema guarantees for a to-one relation.
type DecodeError struct {
	Resource string
	Field    string
	Reason   string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s.%s: %s", e.Resource, e.Field, e.Reason)
}

// Unwrap ties DecodeError into the taxonomy for errors.Is.
func (e *DecodeError) Unwrap() error {
	return ErrDecodeInconsistency
}

// IsNotFound checks if the error is a not found response from the API.
func IsNotFound(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}

	return false
}

// IsUnauthorized checks if the error is an authentication failure from the API.
func IsUnauthorized(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized
	}

	return false
}

// IsRateLimited checks if the error is a rate limit response from the API.
func IsRateLimited(err error) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}

	return false
}
