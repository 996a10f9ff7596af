package internal

import "time"

// defaultEventThrottle bounds how often the SSE broker emits the
// aggregated graph.updated signal.
const defaultEventThrottle = 2 * time.Second

// Option configures the note graph application before startup.
type Option func(*application)

type application struct {
	config        *Config
	eventThrottle time.Duration
}

// WithConfig supplies the loaded configuration. Required.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithEventThrottle overrides the graph.updated throttle window.
func WithEventThrottle(d time.Duration) Option {
	return func(a *application) {
		a.eventThrottle = d
	}
}

func (a *application) throttle() time.Duration {
	if a.eventThrottle <= 0 {
		return defaultEventThrottle
	}
	return a.eventThrottle
}
