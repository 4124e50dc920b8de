// Package reporter implements read-only Observers (spec.md §4.8): signal
// consumers attached to a SignalBus for logging, metrics, and telemetry,
// whose handler errors must never propagate back to the engine. Grounded in
// the teacher's hooks.StreamSubscriber (a Subscriber that filters to a
// pattern of interest and forwards to an external sink) — adapted from the
// teacher's fail-fast propagation (a sink error stops delivery to other
// subscribers) to spec.md's read-only contract, where a Reporter's error is
// logged and swallowed, never surfaced to the bus.
package reporter

import (
	"context"

	"github.com/signalmesh/reactor/bus"
	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/telemetry"
)

type (
	// Reporter is a named, pattern-scoped signal observer.
	Reporter interface {
		Name() string
		Patterns() []string
		OnSignal(ctx context.Context, sig signal.Signal)
	}

	// logReporter forwards every matched signal to a structured Logger,
	// the simplest possible Reporter. engine.Run does not attach it; a
	// caller wires it onto the run's Bus with Attach.
	logReporter struct {
		name     string
		patterns []string
		logger   telemetry.Logger
	}
)

// NewLogReporter returns a Reporter that logs every signal matching
// patterns (or every signal, if patterns is empty) at Info level.
func NewLogReporter(name string, patterns []string, logger telemetry.Logger) Reporter {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	if len(patterns) == 0 {
		patterns = []string{"**"}
	}
	return &logReporter{name: name, patterns: patterns, logger: logger}
}

func (r *logReporter) Name() string       { return r.name }
func (r *logReporter) Patterns() []string { return r.patterns }

func (r *logReporter) OnSignal(ctx context.Context, sig signal.Signal) {
	r.logger.Info(ctx, "signal observed", "reporter", r.name, "signal", sig.Name, "agent", sig.Source.Agent)
}

// Attach subscribes r to b for every one of its patterns, returning the
// resulting tokens so the caller can detach them together. A Reporter's
// OnSignal must never panic or propagate an error to the bus; Bus.Emit
// already recovers panics per-subscriber (bus.go), so Attach adds no
// further isolation beyond what Subscribe already provides.
func Attach(b *bus.Bus, r Reporter) ([]bus.Token, error) {
	tokens := make([]bus.Token, 0, len(r.Patterns()))
	for _, pattern := range r.Patterns() {
		tok, err := b.Subscribe(pattern, r.OnSignal, bus.WithOwner(r.Name()))
		if err != nil {
			for _, t := range tokens {
				t.Unsubscribe()
			}
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Detach unsubscribes every token, tolerating tokens already removed.
func Detach(tokens []bus.Token) {
	for _, t := range tokens {
		t.Unsubscribe()
	}
}
