package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid session/exercise/threshold config.
	// Fatal at session start; clinical thresholds never fall back silently.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation marks semantically invalid values discovered past
	// construction time.
	ErrValidation = errors.New("validation error")

	// ErrInputQuality marks low-confidence or missing landmarks and
	// non-monotonic timestamps. Recovered by skipping the measurement.
	ErrInputQuality = errors.New("input quality error")

	// ErrGeometry marks degenerate vectors and non-unit normals raised by
	// the geometry layer.
	ErrGeometry = errors.New("geometry error")

	// ErrNotFound marks lookups of unknown sessions or stored records.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks everything else that may succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error carrying stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinels above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// TickStatus is the per-tick outcome exposed to collaborators.
type TickStatus string

const (
	StatusOK TickStatus = "ok"

	// StatusUnavailable means no measurement this tick; presentation
	// collaborators show a positioning/quality hint instead of a number.
	StatusUnavailable TickStatus = "unavailable"
)

// TickOutcome maps a pipeline error to the status a tick should report.
// Recoverable input and geometry failures degrade to unavailable; anything
// else is returned to the caller as a real fault.
func TickOutcome(err error) (TickStatus, bool) {
	if err == nil {
		return StatusOK, true
	}
	if Recoverable(err) {
		return StatusUnavailable, true
	}
	return "", false
}

// Recoverable reports whether the error belongs to the skip-this-tick class.
func Recoverable(err error) bool {
	return errors.Is(err, ErrInputQuality) || errors.Is(err, ErrGeometry)
}

// Fatal reports whether the error must abort session construction.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
