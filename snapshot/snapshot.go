// Package snapshot implements the Snapshot Deriver (spec.md §4.4): a pure
// fold over a signal log that reconstructs point-in-time workflow state,
// streaming-text accumulators, and in-flight tool-call state. Grounded in
// the teacher repo's session/state reducer (a pure, side-effect-free fold
// rebuilding a session's view from its event history) — generalized from
// that teacher's fixed session-event vocabulary to this module's agent/
// harness/state signal vocabulary.
package snapshot

import (
	"strings"

	"github.com/signalmesh/reactor/signal"
)

type (
	// StreamKind distinguishes the two streaming-content channels a harness
	// may produce.
	StreamKind string

	// StreamKey identifies one streaming accumulator: a (agent, kind) pair,
	// since each in-flight agent may be streaming both thinking and text.
	StreamKey struct {
		Agent string
		Kind  StreamKind
	}

	// Stream is the accumulated content for one streaming channel.
	Stream struct {
		Content  string
		Complete bool
	}

	// ToolStatus is the lifecycle state of a tool call observed in the log.
	ToolStatus string

	// ToolCall is the accumulated state of one tool invocation.
	ToolCall struct {
		ID     string
		Name   string
		Input  any
		Status ToolStatus
		Result any
	}

	// HarnessBlock tracks one in-flight (or just-completed) harness
	// invocation, scoped by the emitting agent.
	HarnessBlock struct {
		Agent   string
		Active  bool
		Content string
		Usage   any
	}

	// AgentSpec carries the subset of a workflow.Agent's declaration the
	// deriver needs to fold agent-authored state writes (spec.md §4.4's
	// final bullet and §4.5 step 4e): its Updates path, and the signal
	// names its emits documents as its own completion signals.
	AgentSpec struct {
		Name    string
		Updates string
		Emits   []string
	}

	// Snapshot is the point-in-time view derived from (initialState, a
	// prefix of a signal log). Derive is a pure function: identical inputs
	// always yield a Snapshot with identical field values, modulo map
	// iteration order and absolute timestamps (spec.md §3's Snapshot
	// invariant).
	Snapshot struct {
		State   map[string]any
		Streams map[StreamKey]Stream
		Tools   map[string]ToolCall
		Harness map[string]HarnessBlock // keyed by agent name
		SeenLen int                     // count of signals folded so far

		// updatesByAgent and emitsOwner are read-only lookup tables built
		// once from the AgentSpecs passed to New/Derive; clone() shares them
		// by reference rather than copying, since Apply never mutates them.
		updatesByAgent map[string]string // agent name -> updates path
		emitsOwner     map[string]string // emitted signal name -> owning agent name
	}
)

const (
	StreamText     StreamKind = "text"
	StreamThinking StreamKind = "thinking"

	ToolPending  ToolStatus = "pending"
	ToolComplete ToolStatus = "complete"
	ToolError    ToolStatus = "error"
)

// New returns the zero Snapshot seeded from initialState. initialState is
// shallow-copied so the caller's map is never mutated by a later Apply.
// agents declares the workflow's agents so Apply can fold agent-authored
// state writes (spec.md §4.4's final bullet, §4.5 step 4e); pass nil if the
// signal log being folded contains none of those (e.g. pure harness-content
// signals).
func New(initialState map[string]any, agents []AgentSpec) Snapshot {
	state := make(map[string]any, len(initialState))
	for k, v := range initialState {
		state[k] = v
	}
	updatesByAgent := make(map[string]string, len(agents))
	emitsOwner := map[string]string{}
	for _, a := range agents {
		if a.Updates != "" {
			updatesByAgent[a.Name] = a.Updates
		}
		for _, name := range a.Emits {
			emitsOwner[name] = a.Name
		}
	}
	return Snapshot{
		State:          state,
		Streams:        make(map[StreamKey]Stream),
		Tools:          make(map[string]ToolCall),
		Harness:        make(map[string]HarnessBlock),
		updatesByAgent: updatesByAgent,
		emitsOwner:     emitsOwner,
	}
}

// Derive folds every signal in signals over initialState in order, per
// spec.md §4.4's algorithm, and returns the resulting Snapshot. It never
// mutates initialState or the elements of signals. See New for agents.
func Derive(initialState map[string]any, signals []signal.Signal, agents []AgentSpec) Snapshot {
	snap := New(initialState, agents)
	for _, sig := range signals {
		snap = snap.Apply(sig)
	}
	return snap
}

// Apply folds a single signal into the snapshot and returns the updated
// result. Apply(s) composed signal-by-signal is equivalent to Derive on the
// same sequence: this is what gives the deriver its associativity guarantee
// (spec.md §8 property 5) — derive(a ⊕ b) equals folding b, signal by
// signal, onto derive(a).
func (s Snapshot) Apply(sig signal.Signal) Snapshot {
	out := s.clone()
	out.SeenLen = s.SeenLen + 1

	switch {
	case sig.Name == signal.WorkflowStart:
		// Engine-owned bookkeeping only; agents/session id are not part of
		// Snapshot's public surface (spec.md doesn't require surfacing them
		// here — they are available on the originating signal itself to any
		// consumer that needs them).

	case sig.Name == signal.HarnessStart:
		agent := sig.Source.Agent
		out.Harness[agent] = HarnessBlock{Agent: agent, Active: true}

	case sig.Name == signal.TextDelta || sig.Name == signal.ThinkingDelta:
		key := streamKey(sig)
		cur := out.Streams[key]
		cur.Content += contentOf(sig.Payload)
		out.Streams[key] = cur

	case sig.Name == signal.TextComplete || sig.Name == signal.ThinkingComplete:
		key := streamKey(sig)
		out.Streams[key] = Stream{Content: contentOf(sig.Payload), Complete: true}

	case sig.Name == signal.ToolCall:
		tc := toolCallOf(sig.Payload)
		tc.Status = ToolPending
		out.Tools[tc.ID] = tc

	case sig.Name == signal.ToolResult:
		id, status, result := toolResultOf(sig.Payload)
		if existing, ok := out.Tools[id]; ok {
			existing.Status = status
			existing.Result = result
			out.Tools[id] = existing
		}

	case sig.Name == signal.HarnessEnd:
		agent := sig.Source.Agent
		block := out.Harness[agent]
		block.Active = false
		block.Content, block.Usage = harnessEndOf(sig.Payload)
		out.Harness[agent] = block

	case sig.Name == signal.AgentComplete:
		// spec.md §4.5 step 4e: on an agent's terminal output, if its
		// Updates path is set, mutate state at that path to output.content
		// (or output.output if structured).
		if path, ok := out.updatesByAgent[agentNameOf(sig)]; ok && path != "" {
			out.State[path] = outputOf(sig.Payload)
		}

	case strings.HasPrefix(sig.Name, "state:") && strings.HasSuffix(sig.Name, ":changed"):
		field := strings.TrimSuffix(strings.TrimPrefix(sig.Name, "state:"), ":changed")
		if field != "" {
			out.State[field] = newValueOf(sig.Payload)
		}

	default:
		// spec.md §4.4's final bullet: any agent-emitted signal named by
		// that agent's `emits` writes signal.payload.output at its Updates
		// path, distinct from (and in addition to) the agent:complete
		// channel above — this is the channel a user-authored completion
		// signal (one an agent yields instead of relying on agent:complete)
		// uses to carry its own output.
		if owner, ok := out.emitsOwner[sig.Name]; ok {
			if path, ok := out.updatesByAgent[owner]; ok && path != "" {
				out.State[path] = outputOf(sig.Payload)
			}
		}
		// All other unknown signal names leave state unchanged.
	}

	return out
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		State:          make(map[string]any, len(s.State)),
		Streams:        make(map[StreamKey]Stream, len(s.Streams)),
		Tools:          make(map[string]ToolCall, len(s.Tools)),
		Harness:        make(map[string]HarnessBlock, len(s.Harness)),
		updatesByAgent: s.updatesByAgent,
		emitsOwner:     s.emitsOwner,
	}
	for k, v := range s.State {
		out.State[k] = v
	}
	for k, v := range s.Streams {
		out.Streams[k] = v
	}
	for k, v := range s.Tools {
		out.Tools[k] = v
	}
	for k, v := range s.Harness {
		out.Harness[k] = v
	}
	return out
}

// agentNameOf returns the completing agent's name: sig.Source.Agent if set,
// otherwise the "agent" field of an agent:complete payload.
func agentNameOf(sig signal.Signal) string {
	if sig.Source.Agent != "" {
		return sig.Source.Agent
	}
	m, ok := sig.Payload.(map[string]any)
	if !ok {
		return ""
	}
	name, _ := m["agent"].(string)
	return name
}

// outputOf extracts an agent's terminal output from a payload shaped like
// {output: ...} (agent:complete) or {output: {output: ...}} (a structured
// HarnessOutput), per spec.md §4.5 step 4e's "output.content ... or
// output.output if structured" rule.
func outputOf(payload any) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	output := m["output"]
	if nested, ok := output.(map[string]any); ok {
		if v, ok := nested["output"]; ok {
			return v
		}
		if v, ok := nested["content"]; ok {
			return v
		}
	}
	return output
}

func streamKey(sig signal.Signal) StreamKey {
	kind := StreamText
	if sig.Name == signal.ThinkingDelta || sig.Name == signal.ThinkingComplete {
		kind = StreamThinking
	}
	return StreamKey{Agent: sig.Source.Agent, Kind: kind}
}

func contentOf(payload any) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	c, _ := m["content"].(string)
	return c
}

func toolCallOf(payload any) ToolCall {
	m, ok := payload.(map[string]any)
	if !ok {
		return ToolCall{}
	}
	id, _ := m["id"].(string)
	name, _ := m["name"].(string)
	return ToolCall{ID: id, Name: name, Input: m["input"]}
}

func toolResultOf(payload any) (id string, status ToolStatus, result any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return "", ToolComplete, nil
	}
	id, _ = m["id"].(string)
	status = ToolComplete
	if errVal, ok := m["error"]; ok && errVal != nil {
		status = ToolError
	}
	return id, status, m["result"]
}

func harnessEndOf(payload any) (content string, usage any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return "", nil
	}
	content, _ = m["content"].(string)
	return content, m["usage"]
}

func newValueOf(payload any) any {
	m, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	return m["newValue"]
}
