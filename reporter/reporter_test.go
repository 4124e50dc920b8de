package reporter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalmesh/reactor/bus"
	"github.com/signalmesh/reactor/reporter"
	"github.com/signalmesh/reactor/signal"
)

type recordingReporter struct {
	name     string
	patterns []string
	seen     []string
}

func (r *recordingReporter) Name() string       { return r.name }
func (r *recordingReporter) Patterns() []string { return r.patterns }
func (r *recordingReporter) OnSignal(ctx context.Context, sig signal.Signal) {
	r.seen = append(r.seen, sig.Name)
}

func TestAttachDeliversOnlyMatchedPatterns(t *testing.T) {
	b := bus.New(nil)
	r := &recordingReporter{name: "audit", patterns: []string{"agent:*"}}

	tokens, err := reporter.Attach(b, r)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	b.Emit(context.Background(), signal.New(signal.WorkflowStart, nil))
	b.Emit(context.Background(), signal.New(signal.AgentComplete, nil))

	assert.Equal(t, []string{signal.AgentComplete}, r.seen)
}

func TestDetachStopsDelivery(t *testing.T) {
	b := bus.New(nil)
	r := &recordingReporter{name: "audit", patterns: []string{"**"}}

	tokens, err := reporter.Attach(b, r)
	require.NoError(t, err)

	reporter.Detach(tokens)
	b.Emit(context.Background(), signal.New(signal.WorkflowStart, nil))

	assert.Empty(t, r.seen)
}

// panicReporter always panics from OnSignal, modeling a broken Reporter.
// spec.md §4.8 requires this never reach the engine: Bus.Emit already
// recovers per-subscriber panics (bus.go), so a panicking Reporter must not
// stop delivery to siblings subscribed on the same bus.
type panicReporter struct{}

func (panicReporter) Name() string       { return "panicker" }
func (panicReporter) Patterns() []string { return []string{"**"} }
func (panicReporter) OnSignal(context.Context, signal.Signal) {
	panic(errors.New("boom"))
}

func TestReporterPanicDoesNotStopOtherSubscribers(t *testing.T) {
	b := bus.New(nil)
	_, err := reporter.Attach(b, panicReporter{})
	require.NoError(t, err)

	sibling := &recordingReporter{name: "sibling", patterns: []string{"**"}}
	_, err = reporter.Attach(b, sibling)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		b.Emit(context.Background(), signal.New(signal.WorkflowStart, nil))
	})
	assert.Equal(t, []string{signal.WorkflowStart}, sibling.seen)
}

func TestNewLogReporterDefaultsToMatchAll(t *testing.T) {
	r := reporter.NewLogReporter("logger", nil, nil)
	assert.Equal(t, []string{"**"}, r.Patterns())

	b := bus.New(nil)
	_, err := reporter.Attach(b, r)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		b.Emit(context.Background(), signal.New(signal.WorkflowStart, nil))
	})
}
