// Package telemetry defines the logging, metrics, and tracing contracts the
// runtime depends on, grounded in the teacher repo's
// agents/runtime/telemetry package. The engine itself never depends on
// *which* backend is wired in — see spec.md §6 ("the engine itself MUST NOT
// depend on the logger state") — it only calls through these interfaces.
package telemetry

import "context"

type (
	// Logger emits structured log messages. Implementations should treat
	// keyvals as alternating key/value pairs, matching the slog convention.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers, and gauges for runtime operations.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, value float64, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer starts spans around runtime operations (the engine opens one
	// per agent activation) for distributed tracing backends.
	Tracer interface {
		Start(ctx context.Context, name string) (context.Context, Span)
	}

	// Span is a single tracing span, closed via End.
	Span interface {
		SetAttribute(key string, value any)
		RecordError(err error)
		End()
	}
)
