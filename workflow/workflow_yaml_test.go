package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/reactor/harness"
	"github.com/signalmesh/reactor/workflow"
)

const echoDoc = `
initialState:
  out: null
endWhen: outSet
defaultHarness: const-hello
agents:
  echoer:
    prompt: "say hello"
    activateOn: ["workflow:start"]
    updates: out
`

func TestParseResolvesNamedReferencesAgainstRegistry(t *testing.T) {
	reg := workflow.NewRegistry()
	reg.EndWhens["outSet"] = func(state map[string]any) bool { return state["out"] != nil }
	reg.Harnesses["const-hello"] = harness.Const("hello")

	wf, err := workflow.Parse([]byte(echoDoc), reg)
	require.NoError(t, err)
	require.Contains(t, wf.Agents, "echoer")
	assert.Equal(t, "out", wf.Agents["echoer"].Updates)
	assert.True(t, wf.EndWhen(map[string]any{"out": "hello"}))
	assert.False(t, wf.EndWhen(map[string]any{"out": nil}))
}

func TestParseFailsOnUnknownEndWhenReference(t *testing.T) {
	reg := workflow.NewRegistry()
	reg.Harnesses["const-hello"] = harness.Const("hello")

	_, err := workflow.Parse([]byte(echoDoc), reg)
	require.Error(t, err)
}

func TestParseFailsOnUnknownHarnessReference(t *testing.T) {
	reg := workflow.NewRegistry()
	reg.EndWhens["outSet"] = func(state map[string]any) bool { return state["out"] != nil }

	_, err := workflow.Parse([]byte(echoDoc), reg)
	require.Error(t, err)
}

const multiAgentDoc = `
initialState:
  out: null
endWhen: outSet
defaultHarness: const-hello
agents:
  zebra:
    activateOn: ["workflow:start"]
  mango:
    activateOn: ["workflow:start"]
  apple:
    activateOn: ["workflow:start"]
  banana:
    activateOn: ["workflow:start"]
`

// TestParsePreservesDocumentOrderAcrossAgents is a regression test for YAML
// mapping decode order: Parse must register agents in the order they are
// written in the document (here deliberately not alphabetical), not in Go's
// randomized map iteration order, so the tie-break rule in spec.md §4.5
// stays deterministic across repeated parses of the same document.
func TestParsePreservesDocumentOrderAcrossAgents(t *testing.T) {
	reg := workflow.NewRegistry()
	reg.EndWhens["outSet"] = func(map[string]any) bool { return false }
	reg.Harnesses["const-hello"] = harness.Const("hello")

	want := []string{"zebra", "mango", "apple", "banana"}
	for i := 0; i < 20; i++ {
		wf, err := workflow.Parse([]byte(multiAgentDoc), reg)
		require.NoError(t, err)
		assert.Equal(t, want, wf.AgentOrder())
	}
}
