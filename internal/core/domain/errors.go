package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports rejected input. It is the only failure surfaced
// to callers of the analysis path; everything downstream is recovered into
// a degraded result instead.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// LayerError classifies a recovered layer failure. It never escapes the
// aggregation path; it is recorded on the LayerResult and in logs.
type LayerError struct {
	Layer  Layer
	Code   string
	Reason string
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %s %s: %s", e.Layer, e.Code, e.Reason)
}

// Recovered failure codes for LayerError.
const (
	LayerErrTimeout     = "timeout"
	LayerErrUnavailable = "unavailable"
	LayerErrMalformed   = "malformed"
	LayerErrCooldown    = "cooldown"
)

// ErrMonitorRunning and ErrMonitorStopped guard the monitor state machine.
var (
	ErrMonitorRunning = errors.New("monitor already running")
	ErrMonitorStopped = errors.New("monitor not running")
)
