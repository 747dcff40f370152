package api

import (
	"errors"
	"fmt"
)

// The gateway classifies every failure into one of five kinds so callers can
// react by kind instead of string-matching. TokenExpiredError is a
// specialization of BusinessError: errors.As with *BusinessError matches both.

// TransportError is returned for a non-2xx HTTP status.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// ParsingError is returned when a response body cannot be decoded as a JSON
// object. The raw body is kept for diagnostics.
type ParsingError struct {
	Body string
	Err  error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("response is not valid JSON: %v (body: %s)", e.Err, e.Body)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// BusinessError is returned when the envelope's ErrorCode or StatusCode is not
// the success sentinel.
type BusinessError struct {
	ErrorCode  int
	StatusCode int
	Message    string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("business error ErrorCode=%d StatusCode=%d: %s", e.ErrorCode, e.StatusCode, e.Message)
}

// TokenExpiredError is the ErrorCode 401 case of BusinessError. Callers catch
// it to fall back to the unauthenticated endpoint variants.
type TokenExpiredError struct {
	BusinessError
}

// As lets errors.As(err, &(*BusinessError)) match a TokenExpiredError too.
func (e *TokenExpiredError) As(target interface{}) bool {
	if be, ok := target.(**BusinessError); ok {
		*be = &e.BusinessError
		return true
	}
	return false
}

// ConfigError is returned for an unrecognized asset-type id.
type ConfigError struct {
	AssetTypeID string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no configuration for asset type %q", e.AssetTypeID)
}

// UnexpectedError wraps any fault the gateway did not anticipate, preserving
// the cause.
type UnexpectedError struct {
	Cause error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected request failure: %v", e.Cause)
}

func (e *UnexpectedError) Unwrap() error { return e.Cause }

// AsTransport checks if an error is a TransportError.
func AsTransport(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// AsParsing checks if an error is a ParsingError.
func AsParsing(err error) (*ParsingError, bool) {
	var pe *ParsingError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// AsBusiness checks if an error is a BusinessError (including token expiry).
func AsBusiness(err error) (*BusinessError, bool) {
	var be *BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// AsTokenExpired checks if an error is a TokenExpiredError.
func AsTokenExpired(err error) (*TokenExpiredError, bool) {
	var te *TokenExpiredError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// AsConfig checks if an error is a ConfigError.
func AsConfig(err error) (*ConfigError, bool) {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
