// Package sigerrors defines the stable error taxonomy shared across the
// runtime (spec.md §7), grounded in the teacher repo's toolerrors.ToolError
// chain-preserving design: each kind wraps an optional cause so callers can
// use errors.Is/As across activation and store boundaries.
package sigerrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the stable error kinds callers can match against with
// errors.Is via the sentinel values below, or by inspecting Error.Kind.
type Kind string

const (
	// KindPatternCompile marks a malformed SignalPattern.
	KindPatternCompile Kind = "pattern_compile"
	// KindRecordingNotFound marks a lookup against an unknown recording.
	KindRecordingNotFound Kind = "recording_not_found"
	// KindRecordingFinalized marks an append attempted after Finalize.
	KindRecordingFinalized Kind = "recording_finalized"
	// KindRecordingConflict marks a recording-identity conflict (e.g. Create
	// called twice for the same id).
	KindRecordingConflict Kind = "recording_conflict"
	// KindStoreIO marks an underlying storage failure.
	KindStoreIO Kind = "store_io"
	// KindHarness marks an error raised inside a harness adapter.
	KindHarness Kind = "harness"
	// KindHarnessTimeout marks a harness that did not terminate within the
	// cancellation grace window.
	KindHarnessTimeout Kind = "harness_timeout"
	// KindEngineInvariant marks a fatal engine-internal contract violation.
	KindEngineInvariant Kind = "engine_invariant"
	// KindCancelled marks a deterministic, driver-initiated cancellation.
	KindCancelled Kind = "cancelled"
)

// Error is the concrete error type for every kind in the taxonomy. It
// preserves an optional chain via Cause, supporting errors.Is/As while
// remaining self-contained (no dependency on the wrapped error's type).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind around an existing cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind, enabling
// errors.Is(err, sigerrors.RecordingFinalized) style checks against the
// exported sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels usable with errors.Is. Only Kind is compared; Message/Cause are
// ignored by Error.Is.
var (
	RecordingNotFound  = &Error{Kind: KindRecordingNotFound}
	RecordingFinalized = &Error{Kind: KindRecordingFinalized}
	RecordingConflict  = &Error{Kind: KindRecordingConflict}
	Cancelled          = &Error{Kind: KindCancelled}
)

// OfKind reports whether err is a *sigerrors.Error with the given Kind.
func OfKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
