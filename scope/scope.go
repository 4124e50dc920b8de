// Package scope implements dynamically scoped context propagation
// (spec.md §4.7): metadata that rides with every signal emission inside an
// activation without explicit parameter passing. Grounded in the teacher's
// agents/runtime/engine/context.go pattern of stashing values on the Go
// context and retrieving them by an unexported key type.
package scope

import "context"

// Scope carries the session/phase/task/agent identifiers that should be
// stamped onto a signal's Source when it is emitted from within this
// scope. Scopes nest: a child scope's non-empty fields shadow the parent's.
type Scope struct {
	SessionID string
	Phase     string
	Task      string
	Agent     string
}

// merge returns a copy of base with any non-empty field of over applied on
// top, implementing the "inner values shadow outer" nesting rule.
func (base Scope) merge(over Scope) Scope {
	out := base
	if over.SessionID != "" {
		out.SessionID = over.SessionID
	}
	if over.Phase != "" {
		out.Phase = over.Phase
	}
	if over.Task != "" {
		out.Task = over.Task
	}
	if over.Agent != "" {
		out.Agent = over.Agent
	}
	return out
}

type scopeKey struct{}

// With returns a child context carrying s merged on top of any scope
// already present in ctx. Emissions performed while this context is in
// scope should stamp signal.Source from From(ctx).
func With(ctx context.Context, s Scope) context.Context {
	merged := From(ctx).merge(s)
	return context.WithValue(ctx, scopeKey{}, merged)
}

// From extracts the current Scope from ctx, returning the zero Scope if
// none has been set.
func From(ctx context.Context) Scope {
	if ctx == nil {
		return Scope{}
	}
	if v, ok := ctx.Value(scopeKey{}).(Scope); ok {
		return v
	}
	return Scope{}
}
