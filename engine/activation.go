package engine

import (
	"time"

	"github.com/signalmesh/reactor/harness"
	"github.com/signalmesh/reactor/scope"
	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/workflow"
)

// runActivation executes one activation of agent, triggered by trigger, per
// spec.md §4.5 step 4. It always runs to completion synchronously: the
// engine's serial-per-agent guarantee (spec.md §8 property 7) follows
// directly from inFlight gating the agent out of processSignal's matching
// loop for the duration of this call.
func (e *run) runActivation(agent *workflow.Agent, trigger signal.Signal) {
	e.inFlight[agent.Name] = true
	e.activationCount[agent.Name]++
	defer func() { e.inFlight[agent.Name] = false }()

	ctx := scope.With(e.ctx, scope.Scope{Agent: agent.Name})
	ctx, span := e.tracer.Start(ctx, "reactor.activation")
	span.SetAttribute("agent", agent.Name)
	span.SetAttribute("trigger", trigger.Name)
	defer span.End()

	e.metrics.IncCounter("reactor_activations_total", 1, "agent", agent.Name)
	started := time.Now()

	prompt := expandPrompt(agent.Prompt, e.state, trigger)

	activated := signal.New(signal.AgentActivated, map[string]any{
		"agent":   agent.Name,
		"trigger": trigger.Name,
		"parent":  trigger.ID,
	}).WithSource(signal.Source{Agent: agent.Name, Parent: trigger.ID})
	e.processSignal(activated)

	adapter := e.wf.HarnessFor(agent)

	emit := func(sig signal.Signal) {
		sig = sig.WithSource(signal.Source{Agent: agent.Name, Parent: trigger.ID})
		e.processSignal(sig)
	}

	input := harness.Input{
		Prompt:         prompt,
		SessionID:      scope.From(ctx).SessionID,
		ParentSignalID: trigger.ID,
		Agent:          agent.Name,
	}

	output, err := adapter.Run(ctx, input, emit)
	durationMs := time.Since(started).Milliseconds()
	e.metrics.RecordTimer("reactor_activation_duration_ms", float64(durationMs), "agent", agent.Name)

	if err != nil {
		span.RecordError(err)
		e.metrics.IncCounter("reactor_activation_errors_total", 1, "agent", agent.Name)
		failure := signal.New(signal.AgentError, map[string]any{
			"agent":  agent.Name,
			"error":  err.Error(),
			"parent": trigger.ID,
		}).WithSource(signal.Source{Agent: agent.Name, Parent: trigger.ID})
		e.processSignal(failure)
		return
	}

	if agent.Updates != "" {
		e.state[agent.Updates] = output.Content
	}

	complete := signal.New(signal.AgentComplete, map[string]any{
		"agent":      agent.Name,
		"output":     output.Content,
		"durationMs": durationMs,
		"parent":     trigger.ID,
	}).WithSource(signal.Source{Agent: agent.Name, Parent: trigger.ID})
	e.processSignal(complete)
}
