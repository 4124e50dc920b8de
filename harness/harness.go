// Package harness defines the Harness Adapter contract (spec.md §4.5/§6):
// the push-style streaming-producer interface an agent's body is run
// through. Grounded in the teacher repo's agents/runtime/stream.Sink design
// (a push interface delivering typed events to a consumer) — generalized
// from the teacher's fixed three-event vocabulary (planner thought, tool
// update, assistant reply) to this module's Signal vocabulary, and from a
// Sink the engine owns to an Emit callback the adapter itself calls.
package harness

import (
	"context"

	"github.com/signalmesh/reactor/signal"
)

type (
	// Capability advertises what an Adapter supports, so a workflow author
	// or the engine can make informed choices (e.g. whether to expect
	// thinking:delta signals).
	Capability struct {
		Name             string
		SupportsTools    bool
		SupportsThinking bool
	}

	// Input is the expanded prompt and run-scoped context handed to an
	// Adapter's Run.
	Input struct {
		// Prompt is the agent's prompt after template expansion against
		// {state, signal} bindings (spec.md §4.5 step 4a).
		Prompt string
		// SessionID scopes this run within a larger workflow execution.
		SessionID string
		// ParentSignalID is the id of the signal that triggered this
		// activation, used to seed causality on every signal Run emits.
		ParentSignalID string
		// Agent is the name of the activating agent.
		Agent string
	}

	// Output is the terminal result of a successful Run: the final content
	// and optional usage statistics, mirrored into the harness:end signal's
	// payload.
	Output struct {
		Content string
		Usage   any
	}

	// Emit is called by an Adapter for every signal in its produced
	// sequence, in order. The engine supplies the Emit it passes to Run; the
	// Emit sets source.agent and source.parent on the caller's behalf for
	// any signal that does not already set them, so an Adapter only needs to
	// construct signal.New(name, payload).
	Emit func(signal.Signal)

	// Adapter is the external contract every agent body runs through.
	// Run MUST emit exactly one harness:start before any other signal, and
	// exactly one of harness:end or harness:error as its last emission
	// (spec.md §4.5/§6's sequencing invariant). Run's returned error, if
	// non-nil, corresponds to the harness:error case; Output is only
	// meaningful when err is nil.
	Adapter interface {
		Capabilities() Capability
		Run(ctx context.Context, input Input, emit Emit) (Output, error)
	}
)
