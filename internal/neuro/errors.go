package neuro

import (
	"errors"
	"fmt"
)

// Domain errors for dashboard operations.
var (
	// ErrGeometryUnavailable indicates the anatomical mesh could not be loaded.
	ErrGeometryUnavailable = errors.New("neuro: surface geometry unavailable")

	// ErrEmptyHistory indicates a lookup against a history buffer with no points.
	ErrEmptyHistory = errors.New("neuro: history buffer is empty")

	// ErrMalformedCamera indicates a stored camera orientation that cannot be applied.
	ErrMalformedCamera = errors.New("neuro: malformed camera orientation")

	// ErrUnknownSensor indicates a sensor id that is not part of the configuration.
	ErrUnknownSensor = errors.New("neuro: unknown sensor")

	// ErrInvalidMesh indicates mesh data with out-of-range indices or no vertices.
	ErrInvalidMesh = errors.New("neuro: invalid mesh")
)

// SensorError wraps an error with the sensor that produced it.
type SensorError struct {
	Sensor  SensorID
	Wrapped error
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("sensor %s: %v", e.Sensor, e.Wrapped)
}

func (e *SensorError) Unwrap() error {
	return e.Wrapped
}
