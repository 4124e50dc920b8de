// Package engine implements the Reactive Engine (spec.md §4.5): the
// scheduler that interprets signals on a SignalBus as triggers for
// declarative agent activations, applies state mutations, tracks causality,
// and terminates a Workflow run. Grounded in the teacher repo's
// agents/runtime/engine (a signal-driven activation loop over a shared
// bus), generalized from the teacher's fixed planner/tool-loop vocabulary
// to this module's workflow/agent declarations.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/signalmesh/reactor/bus"
	"github.com/signalmesh/reactor/scope"
	"github.com/signalmesh/reactor/sigerrors"
	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/store"
	"github.com/signalmesh/reactor/telemetry"
	"github.com/signalmesh/reactor/workflow"
)

type (
	// Options configures a Run.
	Options struct {
		// Bus is used for external fan-out (reporters, observers). If nil, a
		// private Bus is allocated for the run.
		Bus *bus.Bus
		// Store, if set, receives every emitted signal and is finalized at
		// the end of every live (non-replay) run, including a cancelled one.
		Store store.Store
		// RecordingName/Tags/HarnessType seed store.CreateOptions when Store
		// is set and Replay is nil.
		RecordingName string
		RecordingTags []string
		HarnessType   string
		// Logger, Metrics, Tracer back the run's telemetry; nil defaults to
		// the package's noop implementations.
		Logger  telemetry.Logger
		Metrics telemetry.Metrics
		Tracer  telemetry.Tracer
		// SessionID seeds the context-propagation scope (spec.md §4.7); a
		// random id is generated if empty.
		SessionID string
		// Replay, when set, runs the engine in replay mode: no harness is
		// invoked; the recorded signal log is folded to reconstruct the
		// final state.
		Replay *ReplayOptions
	}

	// ReplayOptions selects the recording to replay.
	ReplayOptions struct {
		Store       store.Store
		RecordingID string
	}

	// Result is returned by Run.
	Result struct {
		FinalState  map[string]any
		Signals     []signal.Signal
		Completed   bool
		Activations map[string]int
		DurationMs  int64
		RecordingID string
	}
)

// Run executes wf starting from initialState, per spec.md §4.5. In replay
// mode (opts.Replay set) no harness is invoked; the recorded log is folded
// to reconstruct FinalState and Signals deterministically (spec.md §8
// property 6).
func Run(ctx context.Context, wf *workflow.Workflow, initialState map[string]any, opts Options) (Result, error) {
	if opts.Replay != nil {
		return runReplay(ctx, wf, initialState, opts)
	}
	return runLive(ctx, wf, initialState, opts)
}

func runLive(ctx context.Context, wf *workflow.Workflow, initialState map[string]any, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	b := opts.Bus
	if b == nil {
		b = bus.New(logger)
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = newID()
	}
	ctx = scope.With(ctx, scope.Scope{SessionID: sessionID})

	e := &run{
		ctx:             ctx,
		wf:              wf,
		bus:             b,
		store:           opts.Store,
		logger:          logger,
		metrics:         metrics,
		tracer:          tracer,
		state:           copyState(initialState),
		inFlight:        map[string]bool{},
		activationCount: map[string]int{},
		started:         time.Now(),
	}

	if e.store != nil {
		id, err := e.store.Create(store.CreateOptions{
			Name:        opts.RecordingName,
			Tags:        opts.RecordingTags,
			HarnessType: opts.HarnessType,
		})
		if err != nil {
			return Result{}, sigerrors.Wrap(sigerrors.KindStoreIO, err, "create recording")
		}
		e.recordingID = id
	}

	agentNames := make([]string, 0, len(wf.Agents))
	for name := range wf.Agents {
		agentNames = append(agentNames, name)
	}

	e.enqueueSignal(signal.New(signal.WorkflowStart, map[string]any{"agents": agentNames}))
	e.drain()

	if !e.cancelled {
		durationMs := time.Since(e.started).Milliseconds()
		e.emitTop(signal.New(signal.WorkflowEnd, map[string]any{
			"durationMs":  durationMs,
			"activations": e.totalActivations(),
		}))
		e.metrics.IncCounter("reactor_workflow_terminations_total", 1, "reason", "end_when")
	} else {
		e.metrics.IncCounter("reactor_workflow_terminations_total", 1, "reason", "cancelled")
	}
	e.metrics.RecordTimer("reactor_workflow_duration_ms", float64(time.Since(e.started).Milliseconds()))

	if e.store != nil {
		durationMs := time.Since(e.started).Milliseconds()
		if err := e.store.Finalize(e.recordingID, &durationMs); err != nil {
			return Result{}, sigerrors.Wrap(sigerrors.KindStoreIO, err, "finalize recording")
		}
	}

	result := Result{
		FinalState:  e.state,
		Signals:     e.signals,
		Completed:   !e.cancelled,
		Activations: e.activationCount,
		DurationMs:  time.Since(e.started).Milliseconds(),
		RecordingID: e.recordingID,
	}

	if e.cancelled {
		return result, sigerrors.Cancelled
	}
	return result, nil
}

// run holds one live engine execution's mutable state. It is never shared
// across goroutines: every field is only ever touched from the single
// dispatch loop in drain, which is what gives the engine its serial-per-
// agent and total-emission-order guarantees (spec.md §5) without locking.
type run struct {
	ctx     context.Context
	wf      *workflow.Workflow
	bus     *bus.Bus
	store   store.Store
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	state           map[string]any
	signals         []signal.Signal
	inFlight        map[string]bool
	activationCount map[string]int
	terminated      bool
	cancelled       bool
	started         time.Time
	recordingID     string

	queue []workItem
}

type workItemKind int

const (
	signalWork workItemKind = iota
	activationWork
)

type workItem struct {
	kind    workItemKind
	sig     signal.Signal
	agent   *workflow.Agent
	trigger signal.Signal
}

func (e *run) enqueueSignal(sig signal.Signal) {
	e.queue = append(e.queue, workItem{kind: signalWork, sig: sig})
}

func (e *run) enqueueActivation(agent *workflow.Agent, trigger signal.Signal) {
	e.queue = append(e.queue, workItem{kind: activationWork, agent: agent, trigger: trigger})
}

// drain runs the single dispatch loop to exhaustion: every signal is
// processed (recorded, persisted, matched against agents) before any
// activation it schedules begins, and every activation's own emissions are
// themselves processed the same way before the loop moves on.
func (e *run) drain() {
	for len(e.queue) > 0 {
		if err := e.ctx.Err(); err != nil {
			e.cancelled = true
			return
		}
		item := e.queue[0]
		e.queue = e.queue[1:]
		switch item.kind {
		case signalWork:
			e.processSignal(item.sig)
		case activationWork:
			e.runActivation(item.agent, item.trigger)
		}
	}
}

// processSignal is the engine's universal handler (spec.md §4.5 step 2):
// record, persist, match against agents, check for termination.
func (e *run) processSignal(sig signal.Signal) {
	e.signals = append(e.signals, sig)
	if e.store != nil {
		if err := e.store.Append(e.recordingID, sig); err != nil {
			e.logger.Error(e.ctx, "failed to persist signal", "signal", sig.Name, "err", err)
		}
	}
	e.bus.Emit(e.ctx, sig)

	applyStateChange(e.state, sig)

	if e.terminated {
		return
	}

	// Tie-break: agents are matched and scheduled in a stable order so that
	// when multiple agents match the same signal, activation order is
	// deterministic (spec.md §4.5's tie-break rule uses registration order;
	// this module iterates wf.AgentOrder(), which reflects the order agents
	// were registered with workflow.Builder.AddAgent).
	for _, name := range e.wf.AgentOrder() {
		agent := e.wf.Agents[name]
		if !agent.ActivatesOn(sig.Name) {
			continue
		}
		if e.inFlight[agent.Name] {
			continue
		}
		if agent.When != nil && !agent.When(workflow.GuardContext{State: copyState(e.state), Signal: sig}) {
			continue
		}
		e.enqueueActivation(agent, sig)
	}

	// endWhen is evaluated only after this signal has had its chance to
	// schedule activations (spec.md §4.5 step 2), so a signal that both
	// triggers an agent and satisfies endWhen still gets that agent queued
	// before graceful shutdown begins.
	if e.wf.EndWhen(e.state) {
		e.terminated = true
	}
}

// applyStateChange honors state:<field>:changed signals, mirroring the
// Snapshot Deriver's rule (spec.md §4.4) for any harness or external
// producer that pushes state through this channel rather than through an
// agent's declared Updates path.
func applyStateChange(state map[string]any, sig signal.Signal) {
	field, ok := signal.StateChangedField(sig.Name)
	if !ok {
		return
	}
	payload, ok := sig.Payload.(map[string]any)
	if !ok {
		return
	}
	state[field] = payload["newValue"]
}

// emitTop processes a signal that must be the last thing the dispatch loop
// does (workflow:end): it goes through the same recording/persistence path
// as processSignal but never schedules further activations.
func (e *run) emitTop(sig signal.Signal) {
	e.signals = append(e.signals, sig)
	if e.store != nil {
		if err := e.store.Append(e.recordingID, sig); err != nil {
			e.logger.Error(e.ctx, "failed to persist signal", "signal", sig.Name, "err", err)
		}
	}
	e.bus.Emit(e.ctx, sig)
}

func (e *run) totalActivations() int {
	total := 0
	for _, n := range e.activationCount {
		total += n
	}
	return total
}

func copyState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func newID() string {
	return uuid.NewString()
}
