// Package signal defines the immutable event record routed through the
// SignalBus and persisted by a SignalStore, plus the pattern language used
// to address signals by name.
package signal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source attributes a signal to the activation that produced it, enabling
// causality-chain queries over a recorded log.
type Source struct {
	// Parent is the id of the signal whose activation caused this emission,
	// if any.
	Parent string
	// Agent is the name of the agent that emitted the signal, if emitted
	// from within an activation.
	Agent string
	// Provider identifies the harness/model provider that produced the
	// signal (e.g. "anthropic", "mock"), if applicable.
	Provider string
}

// Signal is an immutable event record. Once emitted, a Signal's fields are
// never mutated; consumers must treat Payload as read-only.
type Signal struct {
	// ID uniquely identifies the signal within a recording.
	ID string
	// Name is the signal's colon-separated name, e.g. "workflow:start".
	Name string
	// Timestamp records when the signal was produced.
	Timestamp time.Time
	// Payload carries the signal's opaque structured data.
	Payload any
	// Source attributes the signal to its producing activation, if any.
	Source Source
}

// New constructs a Signal with a generated ID and the current time. Use
// WithSource or direct field assignment before emission to attach causality.
func New(name string, payload any) Signal {
	return Signal{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// WithSource returns a copy of the signal with Source set, filling only the
// fields that are currently empty so an emitter's explicit values are never
// overwritten.
func (s Signal) WithSource(src Source) Signal {
	out := s
	if out.Source.Parent == "" {
		out.Source.Parent = src.Parent
	}
	if out.Source.Agent == "" {
		out.Source.Agent = src.Agent
	}
	if out.Source.Provider == "" {
		out.Source.Provider = src.Provider
	}
	return out
}

// Reserved signal names the engine owns; user code must never emit these
// directly. The harness:* names are the one exception: a harness adapter
// emits harness:start and harness:end or harness:error as part of its own
// sequence (see harness.Adapter).
const (
	WorkflowStart  = "workflow:start"
	WorkflowEnd    = "workflow:end"
	AgentActivated = "agent:activated"
	AgentComplete  = "agent:complete"
	AgentError     = "agent:error"
	HarnessStart   = "harness:start"
	HarnessEnd     = "harness:end"
	HarnessError   = "harness:error"
)

// Harness-content signal names (spec.md §4.4/§4.5): emitted by a Harness
// Adapter's yielded sequence, consumed by the Snapshot Deriver. Not in
// Reserved, since harness adapters (not arbitrary user code) are the
// intended producer.
const (
	TextDelta        = "text:delta"
	TextComplete     = "text:complete"
	ThinkingDelta    = "thinking:delta"
	ThinkingComplete = "thinking:complete"
	ToolCall         = "tool:call"
	ToolResult       = "tool:result"
)

// StateChangedName returns the reactive-store signal name for a change to
// the named state field: "state:<field>:changed".
func StateChangedName(field string) string {
	return "state:" + field + ":changed"
}

// StateChangedField reports whether name is a "state:<field>:changed"
// signal and, if so, extracts field.
func StateChangedField(name string) (field string, ok bool) {
	const prefix, suffix = "state:", ":changed"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	field = strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	if field == "" {
		return "", false
	}
	return field, true
}

// Reserved reports whether name is one of the engine-owned signal names
// that user code must not emit.
func Reserved(name string) bool {
	switch name {
	case WorkflowStart, WorkflowEnd, AgentActivated, AgentComplete, AgentError,
		HarnessStart, HarnessEnd, HarnessError:
		return true
	default:
		return false
	}
}
