package instrument

import "time"

// NoopRecorder discards all observations. Used when metrics are disabled.
type NoopRecorder struct{}

func (NoopRecorder) Observe(resource, operation, outcome string, elapsed time.Duration) {}
