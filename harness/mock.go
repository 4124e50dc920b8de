package harness

import (
	"context"

	"github.com/signalmesh/reactor/sigerrors"
	"github.com/signalmesh/reactor/signal"
)

// constAdapter is a zero-latency harness that always completes with a fixed
// string, used to seed the spec's worked scenarios (A, B, C) without a real
// model provider.
type constAdapter struct{ content string }

// Const returns an Adapter whose Run immediately completes with content,
// emitting harness:start, text:complete{content}, harness:end.
func Const(content string) Adapter {
	return constAdapter{content: content}
}

func (constAdapter) Capabilities() Capability {
	return Capability{Name: "const"}
}

func (a constAdapter) Run(ctx context.Context, input Input, emit Emit) (Output, error) {
	emit(signal.New(signal.HarnessStart, nil))
	emit(signal.New(signal.TextComplete, map[string]any{"content": a.content}))
	emit(signal.New(signal.HarnessEnd, map[string]any{"content": a.content}))
	return Output{Content: a.content}, nil
}

// failAdapter is a harness that always fails after starting, used to seed
// spec.md §8 Scenario F.
type failAdapter struct{ message string }

// Fail returns an Adapter whose Run emits harness:start, harness:error{
// message}, then returns a non-nil error wrapping message.
func Fail(message string) Adapter {
	return failAdapter{message: message}
}

func (failAdapter) Capabilities() Capability {
	return Capability{Name: "fail"}
}

func (a failAdapter) Run(ctx context.Context, input Input, emit Emit) (Output, error) {
	emit(signal.New(signal.HarnessStart, nil))
	emit(signal.New(signal.HarnessError, map[string]any{"message": a.message}))
	return Output{}, sigerrors.New(sigerrors.KindHarness, "%s", a.message)
}

// streamAdapter emits its content as a sequence of single-character
// text:delta signals before completing, exercising the Snapshot Deriver's
// streaming-accumulator path without a real provider.
type streamAdapter struct{ content string }

// Stream returns an Adapter that emits content one rune at a time via
// text:delta before a final text:complete.
func Stream(content string) Adapter {
	return streamAdapter{content: content}
}

func (streamAdapter) Capabilities() Capability {
	return Capability{Name: "stream", SupportsThinking: false}
}

func (a streamAdapter) Run(ctx context.Context, input Input, emit Emit) (Output, error) {
	emit(signal.New(signal.HarnessStart, nil))
	for _, r := range a.content {
		select {
		case <-ctx.Done():
			return Output{}, ctx.Err()
		default:
		}
		emit(signal.New(signal.TextDelta, map[string]any{"content": string(r)}))
	}
	emit(signal.New(signal.TextComplete, map[string]any{"content": a.content}))
	emit(signal.New(signal.HarnessEnd, map[string]any{"content": a.content}))
	return Output{Content: a.content}, nil
}
