package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/snapshot"
)

func withAgent(sig signal.Signal, agent string) signal.Signal {
	sig.Source.Agent = agent
	return sig
}

func TestDeriveAccumulatesStreamingText(t *testing.T) {
	signals := []signal.Signal{
		withAgent(signal.New(signal.HarnessStart, nil), "echoer"),
		withAgent(signal.New(signal.TextDelta, map[string]any{"content": "hel"}), "echoer"),
		withAgent(signal.New(signal.TextDelta, map[string]any{"content": "lo"}), "echoer"),
		withAgent(signal.New(signal.TextComplete, map[string]any{"content": "hello"}), "echoer"),
	}

	snap := snapshot.Derive(map[string]any{}, signals, nil)
	stream := snap.Streams[snapshot.StreamKey{Agent: "echoer", Kind: snapshot.StreamText}]
	assert.Equal(t, "hello", stream.Content)
	assert.True(t, stream.Complete)
}

func TestDeriveTracksToolLifecycle(t *testing.T) {
	signals := []signal.Signal{
		signal.New(signal.ToolCall, map[string]any{"id": "t1", "name": "search", "input": map[string]any{"q": "go"}}),
		signal.New(signal.ToolResult, map[string]any{"id": "t1", "result": "42"}),
	}

	snap := snapshot.Derive(nil, signals, nil)
	tc := snap.Tools["t1"]
	assert.Equal(t, "search", tc.Name)
	assert.Equal(t, snapshot.ToolComplete, tc.Status)
	assert.Equal(t, "42", tc.Result)
}

func TestDeriveTracksToolErrorResult(t *testing.T) {
	signals := []signal.Signal{
		signal.New(signal.ToolCall, map[string]any{"id": "t1", "name": "search"}),
		signal.New(signal.ToolResult, map[string]any{"id": "t1", "error": "timed out"}),
	}

	snap := snapshot.Derive(nil, signals, nil)
	assert.Equal(t, snapshot.ToolError, snap.Tools["t1"].Status)
}

func TestDeriveClearsInFlightBlockOnHarnessEnd(t *testing.T) {
	signals := []signal.Signal{
		withAgent(signal.New(signal.HarnessStart, nil), "echoer"),
		withAgent(signal.New(signal.HarnessEnd, map[string]any{"content": "hello", "usage": map[string]any{"tokens": 3}}), "echoer"),
	}

	snap := snapshot.Derive(nil, signals, nil)
	block := snap.Harness["echoer"]
	assert.False(t, block.Active)
	assert.Equal(t, "hello", block.Content)
}

func TestDeriveAppliesStateChangedSignals(t *testing.T) {
	signals := []signal.Signal{
		signal.New(signal.StateChangedName("out"), map[string]any{"newValue": "hello"}),
	}

	snap := snapshot.Derive(map[string]any{"out": nil}, signals, nil)
	assert.Equal(t, "hello", snap.State["out"])
}

func TestDeriveIgnoresUnknownSignalNames(t *testing.T) {
	signals := []signal.Signal{
		signal.New("custom:whatever", map[string]any{"x": 1}),
	}

	snap := snapshot.Derive(map[string]any{"out": nil}, signals, nil)
	assert.Equal(t, map[string]any{"out": nil}, snap.State)
}

// TestDeriveAppliesUpdatesOnAgentComplete folds Scenario A's exact signal
// log (spec.md §8): an echoer agent with updates="out" completing with
// output "hello" must leave State["out"] == "hello", matching what
// engine.Result.FinalState produces for the same log.
func TestDeriveAppliesUpdatesOnAgentComplete(t *testing.T) {
	signals := []signal.Signal{
		signal.New(signal.WorkflowStart, nil),
		withAgent(signal.New(signal.AgentActivated, nil), "echoer"),
		withAgent(signal.New(signal.HarnessStart, nil), "echoer"),
		withAgent(signal.New(signal.TextComplete, map[string]any{"content": "hello"}), "echoer"),
		withAgent(signal.New(signal.HarnessEnd, map[string]any{"content": "hello"}), "echoer"),
		withAgent(signal.New(signal.AgentComplete, map[string]any{"agent": "echoer", "output": "hello"}), "echoer"),
	}

	agents := []snapshot.AgentSpec{{Name: "echoer", Updates: "out"}}
	snap := snapshot.Derive(map[string]any{"out": nil}, signals, agents)
	assert.Equal(t, "hello", snap.State["out"])
}

// TestDeriveIgnoresAgentCompleteWithoutUpdates confirms an agent with no
// configured Updates path leaves state untouched on agent:complete.
func TestDeriveIgnoresAgentCompleteWithoutUpdates(t *testing.T) {
	signals := []signal.Signal{
		withAgent(signal.New(signal.AgentComplete, map[string]any{"agent": "echoer", "output": "hello"}), "echoer"),
	}

	snap := snapshot.Derive(map[string]any{"out": nil}, signals, []snapshot.AgentSpec{{Name: "echoer"}})
	assert.Nil(t, snap.State["out"])
}

// TestDeriveAppliesUpdatesOnDeclaredEmitsSignal implements spec.md §4.4's
// final bullet: a custom completion signal named in an agent's emits, not
// agent:complete itself, also writes payload.output at that agent's
// updates path.
func TestDeriveAppliesUpdatesOnDeclaredEmitsSignal(t *testing.T) {
	signals := []signal.Signal{
		withAgent(signal.New("a:done", map[string]any{"output": "A"}), "a"),
	}

	agents := []snapshot.AgentSpec{{Name: "a", Updates: "x", Emits: []string{"a:done"}}}
	snap := snapshot.Derive(map[string]any{"x": nil}, signals, agents)
	assert.Equal(t, "A", snap.State["x"])
}

func TestDeriveDoesNotMutateInitialState(t *testing.T) {
	initial := map[string]any{"out": nil}
	snapshot.Derive(initial, []signal.Signal{
		signal.New(signal.StateChangedName("out"), map[string]any{"newValue": "changed"}),
	}, nil)
	assert.Nil(t, initial["out"])
}
