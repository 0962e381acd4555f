package core

import "time"

// MetricsRecorder receives store-level measurements. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	ObservePersist(driver string, success bool, duration time.Duration)
	AnimalCreated()
	SetAnimals(count int)
}

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

func (NoopMetrics) ObservePersist(string, bool, time.Duration) {}
func (NoopMetrics) AnimalCreated()                             {}
func (NoopMetrics) SetAnimals(int)                             {}
