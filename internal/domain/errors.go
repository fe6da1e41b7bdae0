package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNetwork is a transient transport or provider failure
	ErrNetwork = errors.New("network error")
	// ErrRateLimited means the source's budget for the current window is spent
	ErrRateLimited = errors.New("rate limited")
	// ErrCredentialMissing means a premium source has no API key configured
	ErrCredentialMissing = errors.New("credential missing")
	// ErrCredentialInvalid means the provider rejected the API key
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrNoResults means the provider returned nothing usable
	ErrNoResults = errors.New("no results found")
	// ErrConfigBusy means another process holds the configuration lock
	ErrConfigBusy = errors.New("configuration busy")
	// ErrFilesystem is fatal for the current operation
	ErrFilesystem = errors.New("filesystem error")
	// ErrUnsupported means the capability is not available on this platform
	ErrUnsupported = errors.New("unsupported on this platform")
	// ErrInvalidFrequency is returned by frequency parsing and validation
	ErrInvalidFrequency = errors.New("invalid frequency")
	// ErrUnknownSource is returned for source names outside the registry
	ErrUnknownSource = errors.New("unknown source")
)

// RateLimitError carries the remaining wait for a spent budget
type RateLimitError struct {
	Source  SourceID
	ResetIn time.Duration
}

func (e *RateLimitError) Error() string {
	if e.ResetIn <= 0 {
		return fmt.Sprintf("%s: rate limited", e.Source)
	}
	return fmt.Sprintf("%s: rate limited, resets in %s", e.Source, e.ResetIn.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// StatusError is a non-success HTTP response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrNetwork
}

// CanFallBack reports whether a silent acquisition may move on to the next
// source after err.
func CanFallBack(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrCredentialMissing) ||
		errors.Is(err, ErrCredentialInvalid) ||
		errors.Is(err, ErrNoResults)
}

// FilesystemError wraps err as an ErrFilesystem
func FilesystemError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrFilesystem, op, err)
}
