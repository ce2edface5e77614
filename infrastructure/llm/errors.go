package llm

import (
	"errors"
	"fmt"
)

// Common errors returned by the client and providers.
var (
	// ErrEmptyAPIKey indicates a provider required an API key but none
	// was configured.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrNoResponseChoice indicates the provider reply held no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType classifies provider errors for retryability decisions.
type ErrorType int

// Provider error categories.
const (
	// ErrorTypeUnknown is an unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication covers invalid or missing credentials.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit covers provider-side throttling.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest covers malformed requests and parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound covers missing models or endpoints.
	ErrorTypeNotFound
	// ErrorTypeServerError covers provider-side failures.
	ErrorTypeServerError
	// ErrorTypeNetwork covers client-side connectivity failures.
	ErrorTypeNetwork
	// ErrorTypeTimeout covers request deadline expiry.
	ErrorTypeTimeout
)

// String returns the category name.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ProviderError normalizes provider-specific failures into one shape with
// a classified type and the original error preserved for unwrapping.
type ProviderError struct {
	// Type classifies the failure.
	Type ErrorType
	// Provider names the provider that failed.
	Provider string
	// StatusCode is the HTTP status, when known.
	StatusCode int
	// Message is the provider's error message.
	Message string
	// WrappedError is the original error.
	WrappedError error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error [%s]", e.Provider, e.Type)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	return base
}

// Unwrap returns the original provider error.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether retrying the request could plausibly
// succeed. Authentication and request-shape problems never heal on their
// own; throttling, timeouts, and server or network blips can.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// classifyStatusCode maps an HTTP status to an ErrorType.
func classifyStatusCode(code int) ErrorType {
	switch {
	case code == 401 || code == 403:
		return ErrorTypeAuthentication
	case code == 404:
		return ErrorTypeNotFound
	case code == 429:
		return ErrorTypeRateLimit
	case code >= 500:
		return ErrorTypeServerError
	case code >= 400:
		return ErrorTypeBadRequest
	default:
		return ErrorTypeUnknown
	}
}
