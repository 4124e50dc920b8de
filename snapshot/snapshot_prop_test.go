package snapshot_test

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/signalmesh/reactor/signal"
	"github.com/signalmesh/reactor/snapshot"
)

func genSignal() gopter.Gen {
	return gen.OneConstOf(
		signal.StateChangedName("out"),
		signal.StateChangedName("x"),
		signal.TextDelta,
		signal.TextComplete,
		signal.ToolCall,
		"custom:noop",
	).Map(func(name string) signal.Signal {
		switch name {
		case signal.TextDelta, signal.TextComplete:
			return withAgent(signal.New(name, map[string]any{"content": "a"}), "agent")
		case signal.ToolCall:
			return signal.New(name, map[string]any{"id": "t1", "name": "tool"})
		default:
			return signal.New(name, map[string]any{"newValue": "v"})
		}
	})
}

// TestDeriveIsAssociativeOverConcatenation is spec.md §8 property 5: for any
// split of a signal log into prefix A and suffix B, derive(initial, A ⊕ B)
// equals folding B onto derive(initial, A).
func TestDeriveIsAssociativeOverConcatenation(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("derive(A ++ B) equals folding B onto derive(A)", prop.ForAll(
		func(a []signal.Signal, b []signal.Signal) bool {
			initial := map[string]any{"out": nil, "x": nil}

			whole := snapshot.Derive(initial, append(append([]signal.Signal{}, a...), b...), nil)

			derivedA := snapshot.Derive(initial, a, nil)
			split := derivedA
			for _, sig := range b {
				split = split.Apply(sig)
			}

			return reflect.DeepEqual(whole.State, split.State) &&
				reflect.DeepEqual(whole.Streams, split.Streams) &&
				reflect.DeepEqual(whole.Tools, split.Tools) &&
				reflect.DeepEqual(whole.Harness, split.Harness)
		},
		gen.SliceOf(genSignal()),
		gen.SliceOf(genSignal()),
	))

	props.TestingRun(t)
}
