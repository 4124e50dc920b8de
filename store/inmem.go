package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalmesh/reactor/sigerrors"
	"github.com/signalmesh/reactor/signal"
)

// record is the internal, mutable representation of a single recording.
// Every exported method copies out of it before returning, so no caller ever
// observes (or can corrupt) this state directly.
type record struct {
	meta        Metadata
	signals     []signal.Signal
	checkpoints []Checkpoint
}

// InMemory is the reference Store backend: a mutex-guarded map of
// recordings, grounded in the teacher repo's memory/inmem subscriber store
// (nested maps, defensive copies on every read, no persistence beyond
// process lifetime). Durable backends (file, SQL, object storage) are left
// to concrete deployments; this package only ships the in-memory reference.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*record
}

var _ Store = (*InMemory)(nil)

// NewInMemory constructs an empty in-memory Store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*record)}
}

func (s *InMemory) Create(opts CreateOptions) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = &record{
		meta: Metadata{
			ID:          id,
			Name:        opts.Name,
			Tags:        append([]string(nil), opts.Tags...),
			HarnessType: opts.HarnessType,
			CreatedAt:   time.Now(),
		},
	}
	return id, nil
}

func (s *InMemory) Append(recordingID string, sig signal.Signal) error {
	return s.AppendBatch(recordingID, []signal.Signal{sig})
}

func (s *InMemory) AppendBatch(recordingID string, signals []signal.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordingID]
	if !ok {
		return sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}
	if r.meta.Finalized {
		return sigerrors.Wrap(sigerrors.KindRecordingFinalized, nil, "recording %q is finalized", recordingID)
	}
	r.signals = append(r.signals, signals...)
	r.meta.SignalCount = len(r.signals)
	return nil
}

func (s *InMemory) Checkpoint(recordingID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordingID]
	if !ok {
		return sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}
	r.checkpoints = append(r.checkpoints, Checkpoint{
		Name:      name,
		Index:     len(r.signals) - 1, // -1 if recorded before any signal
		Timestamp: time.Now(),
	})
	return nil
}

func (s *InMemory) GetCheckpoints(recordingID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordingID]
	if !ok {
		return nil, sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}
	return append([]Checkpoint(nil), r.checkpoints...), nil
}

func (s *InMemory) Finalize(recordingID string, durationMs *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[recordingID]
	if !ok {
		return sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}
	if r.meta.Finalized {
		// Finalize is idempotent: finalizing an already-finalized recording is
		// a no-op, not an error, so a driver's cleanup path never has to guard
		// against double-finalization.
		return nil
	}
	r.meta.Finalized = true
	if durationMs != nil {
		r.meta.DurationMs = *durationMs
	}
	return nil
}

func (s *InMemory) Load(recordingID string) (Recording, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordingID]
	if !ok {
		return Recording{}, false, nil
	}
	return Recording{
		Metadata:    r.meta,
		Signals:     append([]signal.Signal(nil), r.signals...),
		Checkpoints: append([]Checkpoint(nil), r.checkpoints...),
	}, true, nil
}

func (s *InMemory) LoadSignals(recordingID string, opts QueryOptions) ([]signal.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordingID]
	if !ok {
		return nil, sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}

	from := opts.FromIndex
	if from < 0 {
		from = 0
	}
	to := opts.ToIndex
	if to <= 0 || to > len(r.signals) {
		to = len(r.signals)
	}
	if from > to {
		from = to
	}

	var patterns []signal.Pattern
	if len(opts.Patterns) > 0 {
		patterns = opts.Patterns
	}

	out := make([]signal.Signal, 0, to-from)
	for _, sig := range r.signals[from:to] {
		if patterns != nil && !signal.MatchAny(sig.Name, patterns) {
			continue
		}
		out = append(out, sig)
	}
	return out, nil
}

func (s *InMemory) List(opts ListOptions) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Metadata, 0, len(s.records))
	for _, r := range s.records {
		if opts.HarnessType != "" && r.meta.HarnessType != opts.HarnessType {
			continue
		}
		if len(opts.Tags) > 0 && !hasAllTags(r.meta.Tags, opts.Tags) {
			continue
		}
		matches = append(matches, r.meta)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matches) {
			return []Metadata{}, nil
		}
		matches = matches[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matches) {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

func (s *InMemory) Delete(recordingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[recordingID]; !ok {
		return sigerrors.Wrap(sigerrors.KindRecordingNotFound, nil, "recording %q not found", recordingID)
	}
	delete(s.records, recordingID)
	return nil
}

func (s *InMemory) Exists(recordingID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[recordingID]
	return ok
}

func hasAllTags(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
