// Package bus implements the SignalBus (spec.md §4.2): a concurrency-safe,
// pattern-addressable publish/subscribe router. It is grounded in the
// teacher repo's agents/runtime/hooks.Bus fan-out design (snapshot-then-
// iterate dispatch, idempotent Subscription.Close), adapted in two ways the
// spec requires: dispatch is pattern-addressed rather than broadcast-to-all,
// and a handler error does not stop delivery to the remaining subscribers.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/telemetry"
)

type (
	// Handler receives signals matching a subscription's pattern. Handlers
	// must treat the signal as immutable and should be fast: Emit blocks the
	// caller until every matching handler has returned.
	Handler func(ctx context.Context, sig signal.Signal)

	// Token is returned by Subscribe and used to Unsubscribe later.
	Token interface {
		// Unsubscribe idempotently removes the subscription. Returns true iff
		// this call actually performed the removal.
		Unsubscribe() bool
	}

	// Option configures a single Subscribe call.
	Option func(*subscription)

	// Bus routes emitted signals to subscribers whose pattern matches the
	// signal's name. All methods are safe for concurrent use.
	Bus struct {
		mu     sync.Mutex
		subs   []*subscription
		logger telemetry.Logger
	}

	subscription struct {
		pattern signal.Pattern
		handler Handler
		owner   string
		schema  *jsonschema.Schema
		removed atomic.Bool
		bus     *Bus
	}
)

// WithOwner tags a subscription with an owner id, useful for diagnostics and
// for bulk-unsubscribing a component's subscriptions.
func WithOwner(owner string) Option {
	return func(s *subscription) { s.owner = owner }
}

// WithSchema attaches a JSON Schema that every matched signal's payload must
// validate against before the handler is invoked. Payloads that fail
// validation are treated like a handler error: logged and skipped, without
// aborting dispatch to other subscribers. This realizes spec.md §9's note
// that "consumers that need structure validate at the subscription boundary
// using an externally supplied schema."
func WithSchema(schema *jsonschema.Schema) Option {
	return func(s *subscription) { s.schema = schema }
}

// New constructs an empty Bus. logger may be nil, in which case handler
// errors are silently discarded (matching engine.Run's noop-logger default
// elsewhere in this module).
func New(logger telemetry.Logger) *Bus {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &Bus{logger: logger}
}

// Subscribe compiles pattern and registers handler to receive every future
// Emit whose signal name matches. Insertion order determines dispatch order
// among subscribers matched by the same emission.
func (b *Bus) Subscribe(pattern string, handler Handler, opts ...Option) (Token, error) {
	compiled, err := signal.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return b.SubscribePattern(compiled, handler, opts...), nil
}

// SubscribePattern is like Subscribe but takes an already-compiled pattern,
// useful when the same pattern is reused across many subscriptions.
func (b *Bus) SubscribePattern(pattern signal.Pattern, handler Handler, opts ...Option) Token {
	s := &subscription{pattern: pattern, handler: handler, bus: b}
	for _, opt := range opts {
		opt(s)
	}
	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()
	return s
}

// Unsubscribe implements Token.
func (s *subscription) Unsubscribe() bool {
	return s.removed.CompareAndSwap(false, true)
}

// Emit delivers sig to every subscriber whose pattern matches sig.Name,
// invoking them synchronously in registration order. Subscribers registered
// after Emit begins are not invoked for this signal; subscribers removed
// before dispatch reaches them are skipped. A handler panic (recovered in
// invoke) or a payload that fails schema validation is logged and does not
// stop delivery to the remaining subscribers.
func (b *Bus) Emit(ctx context.Context, sig signal.Signal) {
	b.mu.Lock()
	snapshot := b.subs[:len(b.subs)]
	b.mu.Unlock()

	for _, s := range snapshot {
		if s.removed.Load() {
			continue
		}
		if !s.pattern.Match(sig.Name) {
			continue
		}
		if s.schema != nil {
			if err := validatePayload(s.schema, sig.Payload); err != nil {
				b.logger.Warn(ctx, "signal payload failed schema validation", "signal", sig.Name, "owner", s.owner, "err", err)
				continue
			}
		}
		b.invoke(ctx, s, sig)
	}
}

func (b *Bus) invoke(ctx context.Context, s *subscription, sig signal.Signal) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(ctx, "signal handler panicked", "signal", sig.Name, "owner", s.owner, "recover", r)
		}
	}()
	s.handler(ctx, sig)
}

// EmitBatch emits every signal in order. Not atomic: a later call observing
// a partial batch after a crash is possible, but within this call each
// signal's dispatch follows Emit's semantics exactly.
func (b *Bus) EmitBatch(ctx context.Context, signals []signal.Signal) {
	for _, sig := range signals {
		b.Emit(ctx, sig)
	}
}

// Clear removes every subscription from the bus.
func (b *Bus) Clear() {
	b.mu.Lock()
	for _, s := range b.subs {
		s.removed.Store(true)
	}
	b.subs = nil
	b.mu.Unlock()
}

func validatePayload(schema *jsonschema.Schema, payload any) error {
	// jsonschema.Validate requires the decoded-JSON shape (map[string]any,
	// []any, float64, string, bool, nil), not arbitrary Go structs, so
	// round-trip the payload through encoding/json first.
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return schema.Validate(decoded)
}
