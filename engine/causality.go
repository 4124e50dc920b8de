package engine

import "github.com/signalmesh/reactor/signal"

// WalkToStart walks the parent chain starting at the signal with the given
// id, following Source.Parent links, and returns the chain in order from
// that signal back to (and including) the workflow:start signal it
// eventually reaches. ok is false if the chain runs out (a broken or cyclic
// parent link) before reaching workflow:start — spec.md §8 property 8
// requires this never happens for any agent:complete signal in a Result.
func WalkToStart(signals []signal.Signal, id string) (chain []signal.Signal, ok bool) {
	byID := make(map[string]signal.Signal, len(signals))
	for _, sig := range signals {
		byID[sig.ID] = sig
	}

	visited := make(map[string]bool, len(signals))
	cur, found := byID[id]
	if !found {
		return nil, false
	}

	for {
		if visited[cur.ID] {
			return chain, false // cycle
		}
		visited[cur.ID] = true
		chain = append(chain, cur)
		if cur.Name == signal.WorkflowStart {
			return chain, true
		}
		next, found := byID[cur.Source.Parent]
		if !found {
			return chain, false
		}
		cur = next
	}
}
