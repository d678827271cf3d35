package ports

// Metrics receives domain counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// EffectFailed counts a best-effort side effect that did not complete.
	EffectFailed(effect string)
	// VersionTransition counts a version entering status.
	VersionTransition(status string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) EffectFailed(string)      {}
func (NoopMetrics) VersionTransition(string) {}
