package sigerrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalmesh/reactor/sigerrors"
)

func TestIsMatchesByKindOnly(t *testing.T) {
	err := sigerrors.New(sigerrors.KindRecordingFinalized, "recording %q is finalized", "rec-1")
	assert.True(t, errors.Is(err, sigerrors.RecordingFinalized))
	assert.False(t, errors.Is(err, sigerrors.RecordingNotFound))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := sigerrors.Wrap(sigerrors.KindStoreIO, cause, "append failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOfKind(t *testing.T) {
	err := sigerrors.New(sigerrors.KindHarnessTimeout, "boom")
	assert.True(t, sigerrors.OfKind(err, sigerrors.KindHarnessTimeout))
	assert.False(t, sigerrors.OfKind(err, sigerrors.KindHarness))
	assert.False(t, sigerrors.OfKind(errors.New("plain"), sigerrors.KindHarness))
}
