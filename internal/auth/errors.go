package auth

import (
	"errors"
	"fmt"
)

// ErrAuthorizationTimeout is returned when no browser redirect arrives in time.
var ErrAuthorizationTimeout = errors.New("timed out waiting for authorization callback")

// ConfigurationError reports missing or invalid client configuration.
// It is fatal and never retried.
type ConfigurationError struct {
	Field string
	// Err is set when the field is present but invalid.
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid OAuth client configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("missing OAuth client configuration: %s is not set", e.Field)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// BindError is returned when the callback listener cannot bind its port.
// The redirect URI is registered with the provider, so no other port is tried.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind callback listener on %s: %v", e.Addr, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// AuthorizationError is an explicit error reported by the provider on the
// redirect, e.g. access_denied.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization error: %s", e.Reason)
}

// ExchangeError is returned when the token endpoint rejects a code exchange
// or a refresh.
type ExchangeError struct {
	// GrantType is "authorization_code" or "refresh_token".
	GrantType string
	// StatusCode is the HTTP status of the token endpoint, 0 if the request never completed.
	StatusCode int
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token exchange (%s) failed with status %d: %v", e.GrantType, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("token exchange (%s) failed: %v", e.GrantType, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// TokenDecryptError describes a stored token that could not be read back.
// FileTokenStore logs it and reports the record as absent; callers never see it.
type TokenDecryptError struct {
	Path string
	Err  error
}

func (e *TokenDecryptError) Error() string {
	return fmt.Sprintf("failed to decrypt token store %s: %v", e.Path, e.Err)
}

func (e *TokenDecryptError) Unwrap() error {
	return e.Err
}
