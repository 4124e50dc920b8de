package engine

import (
	"context"

	"github.com/signalmesh/reactor/sigerrors"
	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/store"
	"github.com/signalmesh/reactor/workflow"
)

// runReplay reconstructs a run's final state from a previously recorded
// signal log without invoking any harness (spec.md §8 property 6). It
// applies exactly the state-mutation rules runLive applies — state:<field>:
// changed signals, and agent:complete signals for agents with an Updates
// path — folded over the recorded log in order.
func runReplay(_ context.Context, wf *workflow.Workflow, initialState map[string]any, opts Options) (Result, error) {
	if opts.Replay.Store == nil {
		return Result{}, sigerrors.New(sigerrors.KindEngineInvariant, "replay requires a store")
	}

	signals, err := opts.Replay.Store.LoadSignals(opts.Replay.RecordingID, store.QueryOptions{})
	if err != nil {
		return Result{}, sigerrors.Wrap(sigerrors.KindStoreIO, err, "load recording %q for replay", opts.Replay.RecordingID)
	}

	state := copyState(initialState)
	activations := map[string]int{}

	for _, sig := range signals {
		applyStateChange(state, sig)

		switch sig.Name {
		case signal.AgentActivated:
			if name := stringField(sig.Payload, "agent"); name != "" {
				activations[name]++
			}
		case signal.AgentComplete:
			applyAgentComplete(wf, state, sig)
		}
	}

	return Result{
		FinalState:  state,
		Signals:     signals,
		Completed:   true,
		Activations: activations,
		RecordingID: opts.Replay.RecordingID,
	}, nil
}

func applyAgentComplete(wf *workflow.Workflow, state map[string]any, sig signal.Signal) {
	name := stringField(sig.Payload, "agent")
	if name == "" {
		return
	}
	agent, ok := wf.Agents[name]
	if !ok || agent.Updates == "" {
		return
	}
	m, ok := sig.Payload.(map[string]any)
	if !ok {
		return
	}
	state[agent.Updates] = m["output"]
}

func stringField(payload any, key string) string {
	m, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
