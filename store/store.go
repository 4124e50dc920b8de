// Package store implements the SignalStore contract (spec.md §4.3): an
// append-only, per-recording log with metadata, checkpoints, and range/
// pattern queries. Grounded in the teacher repo's run/inmem and
// memory/inmem packages: a mutex-guarded map keyed by id, with every read
// returning a defensive copy so callers can never mutate internal state.
package store

import (
	"time"

	"github.com/signalmesh/reactor/signal"
)

type (
	// Metadata describes a recording without its signal log.
	Metadata struct {
		ID          string
		Name        string
		Tags        []string
		HarnessType string
		CreatedAt   time.Time
		SignalCount int
		DurationMs  int64
		Finalized   bool
	}

	// Checkpoint is a named marker pointing at a position in a recording's
	// signal log.
	Checkpoint struct {
		Name      string
		Index     int
		Timestamp time.Time
	}

	// Recording is the full, read-only view returned by Load: metadata plus
	// the ordered signal log and checkpoints as of the call.
	Recording struct {
		Metadata    Metadata
		Signals     []signal.Signal
		Checkpoints []Checkpoint
	}

	// CreateOptions configures Create.
	CreateOptions struct {
		Name        string
		Tags        []string
		HarnessType string
	}

	// QueryOptions filters LoadSignals. The index range is [FromIndex,
	// ToIndex); a zero ToIndex means "through the end of the log". Patterns,
	// if given, are applied after the range slice.
	QueryOptions struct {
		FromIndex int
		ToIndex   int // 0 means unbounded
		Patterns  []signal.Pattern
	}

	// ListOptions filters List.
	ListOptions struct {
		HarnessType string
		Tags        []string
		Limit       int
		Offset      int
	}

	// Store is the append-only recording contract every backend (in-memory,
	// file, SQL — only the in-memory reference backend is implemented here;
	// concrete durable backends are out of scope per spec.md §1) must
	// satisfy.
	Store interface {
		// Create starts a new recording and returns its id.
		Create(opts CreateOptions) (string, error)
		// Append adds sig to the recording's log. Fails with
		// sigerrors.KindRecordingNotFound or KindRecordingFinalized.
		Append(recordingID string, sig signal.Signal) error
		// AppendBatch appends every signal atomically with respect to this
		// single call: either all signals are appended or none are.
		AppendBatch(recordingID string, signals []signal.Signal) error
		// Checkpoint records a named marker at the current log position.
		Checkpoint(recordingID, name string) error
		// GetCheckpoints returns every checkpoint recorded so far, in
		// creation order.
		GetCheckpoints(recordingID string) ([]Checkpoint, error)
		// Finalize marks the recording immutable. durationMs, if non-nil, is
		// stored in the recording's metadata.
		Finalize(recordingID string, durationMs *int64) error
		// Load returns the full recording. ok is false if recordingID is
		// unknown.
		Load(recordingID string) (rec Recording, ok bool, err error)
		// LoadSignals returns the signals in the given range, filtered by
		// pattern if any are given.
		LoadSignals(recordingID string, opts QueryOptions) ([]signal.Signal, error)
		// List returns metadata for every recording matching the filter,
		// newest first by CreatedAt.
		List(opts ListOptions) ([]Metadata, error)
		// Delete removes a recording entirely.
		Delete(recordingID string) error
		// Exists reports whether recordingID refers to a known recording.
		Exists(recordingID string) bool
	}
)
