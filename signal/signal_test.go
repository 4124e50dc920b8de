package signal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/reactor/signal"
)

func TestNewAssignsIDAndTimestamp(t *testing.T) {
	s := signal.New("workflow:start", map[string]any{"agents": []string{"a"}})
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "workflow:start", s.Name)
	assert.False(t, s.Timestamp.IsZero())
}

func TestWithSourceFillsEmptyFieldsOnly(t *testing.T) {
	s := signal.New("tool:call", nil)
	s.Source.Agent = "explicit-agent"

	s = s.WithSource(signal.Source{Parent: "sig-1", Agent: "default-agent", Provider: "mock"})

	assert.Equal(t, "sig-1", s.Source.Parent)
	assert.Equal(t, "explicit-agent", s.Source.Agent, "explicit source values must not be overwritten")
	assert.Equal(t, "mock", s.Source.Provider)
}

func TestReservedNames(t *testing.T) {
	for _, name := range []string{
		signal.WorkflowStart, signal.WorkflowEnd, signal.AgentActivated,
		signal.AgentComplete, signal.AgentError, signal.HarnessStart,
		signal.HarnessEnd, signal.HarnessError,
	} {
		assert.True(t, signal.Reserved(name), name)
	}
	assert.False(t, signal.Reserved("a:done"))
}
