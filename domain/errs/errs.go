// Package errs holds the sentinel and typed errors shared by the publishing engine.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned for an unknown or already consumed OAuth state.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrExpiredState is returned for an OAuth state older than its TTL.
	ErrExpiredState = errors.New("expired oauth state")

	// ErrNoRefreshToken means a token needs refreshing but no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrProfileNotConnected rejects token use for a profile that is disconnected, expired or in error.
	ErrProfileNotConnected = errors.New("social profile not connected")

	// ErrInvalidTransition rejects a content status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnsupportedPlatform is returned when no adapter or provider exists for a platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// ConfigurationError reports missing app credentials for a platform.
type ConfigurationError struct {
	Platform string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured: missing %s", e.Platform, e.Missing)
}

// RefreshFailedError wraps a failed refresh token exchange.
type RefreshFailedError struct {
	Platform string
	Cause    error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("%s token refresh failed: %v", e.Platform, e.Cause)
}

func (e *RefreshFailedError) Unwrap() error { return e.Cause }

// PlatformAPIError wraps any transport or HTTP failure from a platform call.
type PlatformAPIError struct {
	Platform   string
	Operation  string
	StatusCode int
	Body       string
	Cause      error
}

func (e *PlatformAPIError) Error() string {
	msg := fmt.Sprintf("%s api error", e.Platform)
	if e.Operation != "" {
		msg += " (" + e.Operation + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PlatformAPIError) Unwrap() error { return e.Cause }

// MediaUploadError reports the stage at which an upload was aborted.
type MediaUploadError struct {
	Platform string
	Stage    string
	Cause    error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("%s media upload failed at %s: %v", e.Platform, e.Stage, e.Cause)
}

func (e *MediaUploadError) Unwrap() error { return e.Cause }
