package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural errors: fatal to the call, never retried
	ErrInsufficientAnchors  = errors.New("profile needs at least two anchors")
	ErrInvalidDetrendMethod = errors.New("invalid detrend method")
	ErrInvalidLagRange      = errors.New("invalid lag range")
	ErrMisalignedSeries     = errors.New("series do not share a time index")
	ErrAnchorOrder          = errors.New("anchor depths are not strictly monotonic")
	ErrUnorderedTimestamps  = errors.New("timestamps are not strictly increasing")

	// Data-sparsity errors: recoverable per channel
	ErrInsufficientData     = errors.New("insufficient data for analysis")
	ErrUndefinedCorrelation = errors.New("correlation undefined for every lag")

	// Lookup errors
	ErrNotFound         = errors.New("resource not found")
	ErrLocationNotFound = fmt.Errorf("%w: location", ErrNotFound)
	ErrChannelNotFound  = fmt.Errorf("%w: channel", ErrNotFound)
)

// Error constructors with context
func NewInsufficientDataError(channel string, got, need int) error {
	return fmt.Errorf("%w: channel %q has %d usable points, need %d", ErrInsufficientData, channel, got, need)
}

func NewDetrendMethodError(method string) error {
	return fmt.Errorf("%w: %q (use linear or moving_average)", ErrInvalidDetrendMethod, method)
}

func NewMisalignedError(a, b string) error {
	return fmt.Errorf("%w: %q and %q", ErrMisalignedSeries, a, b)
}

func NewLocationNotFoundError(location string) error {
	return fmt.Errorf("%w %s", ErrLocationNotFound, location)
}

// IsDataSparsityError reports whether err only concerns one sparse channel,
// so a batch may record it and continue with the other channels.
func IsDataSparsityError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrUndefinedCorrelation)
}

