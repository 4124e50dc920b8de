// Package workflow defines the declarative Workflow/Agent types (spec.md §3)
// and their validation. Workflows may be built in Go via NewBuilder/Build,
// or loaded from YAML via LoadFile/Parse (workflow_yaml.go).
package workflow

import (
	"fmt"

	"github.com/signalmesh/reactor/harness"
	"github.com/signalmesh/reactor/signal"
)

type (
	// Guard is an agent's optional activation precondition, evaluated
	// against the triggering signal and the state at the moment of match.
	Guard func(ctx GuardContext) bool

	// GuardContext is passed to a Guard.
	GuardContext struct {
		State  map[string]any
		Signal signal.Signal
	}

	// Agent is one declarative participant in a Workflow (spec.md §3's
	// Agent entity).
	Agent struct {
		// Name uniquely identifies the agent within its Workflow.
		Name string
		// Prompt is a templated string accepting {{.State.<field>}},
		// {{.Signal.Name}} and {{.Signal.ID}} bindings, expanded at
		// activation time.
		Prompt string
		// ActivateOn is the non-empty set of SignalPatterns that trigger
		// this agent.
		ActivateOn []string
		// Emits advisorily documents the signal names this agent's harness
		// may emit; not enforced, and not checked by Build. The snapshot
		// deriver reads it via snapshot.AgentSpec.
		Emits []string
		// When is an optional guard; nil means "always activate".
		When Guard
		// Updates is an optional top-level key of the workflow state that
		// this agent's output is written to on completion. The name is used
		// as-is; dots are not treated as nested-path separators.
		Updates string
		// Harness overrides the workflow's default harness for this agent
		// only. Nil means "use the workflow default".
		Harness harness.Adapter

		compiled []signal.Pattern
	}

	// EndWhen is the workflow's termination predicate, evaluated after every
	// emitted signal's state mutation.
	EndWhen func(state map[string]any) bool

	// Workflow is an immutable, validated declaration of a set of Agents, an
	// initial state, a termination predicate, and an optional default
	// harness (spec.md §3's Workflow entity).
	Workflow struct {
		Agents         map[string]*Agent
		InitialState   map[string]any
		EndWhen        EndWhen
		DefaultHarness harness.Adapter

		// order records agent registration order, used to break ties when
		// multiple agents match the same signal (spec.md §4.5's tie-break
		// rule).
		order []string
	}

	// Builder accumulates agents before Build validates and freezes them
	// into a Workflow.
	Builder struct {
		agents         []Agent
		initialState   map[string]any
		endWhen        EndWhen
		defaultHarness harness.Adapter
	}
)

// NewBuilder starts a Workflow construction.
func NewBuilder() *Builder {
	return &Builder{initialState: map[string]any{}}
}

// WithInitialState sets the workflow's initial state.
func (b *Builder) WithInitialState(state map[string]any) *Builder {
	b.initialState = state
	return b
}

// WithEndWhen sets the workflow's termination predicate.
func (b *Builder) WithEndWhen(fn EndWhen) *Builder {
	b.endWhen = fn
	return b
}

// WithDefaultHarness sets the harness used by any agent that does not
// override it.
func (b *Builder) WithDefaultHarness(h harness.Adapter) *Builder {
	b.defaultHarness = h
	return b
}

// AddAgent registers one agent definition.
func (b *Builder) AddAgent(a Agent) *Builder {
	b.agents = append(b.agents, a)
	return b
}

// Build validates the accumulated definition and returns an immutable
// Workflow. Agent names must be unique (spec.md §3's Workflow invariant);
// every agent must declare at least one ActivateOn pattern and must resolve
// to a harness (its own or the workflow default).
func (b *Builder) Build() (*Workflow, error) {
	if b.endWhen == nil {
		return nil, fmt.Errorf("workflow: endWhen is required")
	}
	agents := make(map[string]*Agent, len(b.agents))
	order := make([]string, 0, len(b.agents))
	for i := range b.agents {
		a := b.agents[i]
		if a.Name == "" {
			return nil, fmt.Errorf("workflow: agent at index %d has no name", i)
		}
		if _, dup := agents[a.Name]; dup {
			return nil, fmt.Errorf("workflow: duplicate agent name %q", a.Name)
		}
		if len(a.ActivateOn) == 0 {
			return nil, fmt.Errorf("workflow: agent %q has no activateOn patterns", a.Name)
		}
		if a.Harness == nil && b.defaultHarness == nil {
			return nil, fmt.Errorf("workflow: agent %q has no harness and no workflow default is set", a.Name)
		}
		compiled, err := signal.CompileAll(a.ActivateOn)
		if err != nil {
			return nil, fmt.Errorf("workflow: agent %q: %w", a.Name, err)
		}
		a.compiled = compiled
		agents[a.Name] = &a
		order = append(order, a.Name)
	}

	state := make(map[string]any, len(b.initialState))
	for k, v := range b.initialState {
		state[k] = v
	}

	return &Workflow{
		Agents:         agents,
		InitialState:   state,
		EndWhen:        b.endWhen,
		DefaultHarness: b.defaultHarness,
		order:          order,
	}, nil
}

// AgentOrder returns agent names in the order they were registered with the
// Builder, used to break ties when multiple agents match the same signal.
func (w *Workflow) AgentOrder() []string {
	return append([]string(nil), w.order...)
}

// ActivatesOn reports whether name matches any of a's compiled ActivateOn
// patterns.
func (a *Agent) ActivatesOn(name string) bool {
	return signal.MatchAny(name, a.compiled)
}

// HarnessFor resolves the Adapter to invoke for agent a, preferring its own
// override before falling back to the workflow default.
func (w *Workflow) HarnessFor(a *Agent) harness.Adapter {
	if a.Harness != nil {
		return a.Harness
	}
	return w.DefaultHarness
}
