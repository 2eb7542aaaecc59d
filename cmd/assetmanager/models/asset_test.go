package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUploadedStatus(t *testing.T) {
	status, err := ParseUploadedStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)

	status, err = ParseUploadedStatus("complete")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, status)
}

func TestParseUploadedStatusRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "done", "PENDING", "completed"} {
		_, err := ParseUploadedStatus(raw)
		require.Error(t, err, "expected %q to be rejected", raw)
		assert.Contains(t, err.Error(), "is not one of")
	}
}

func TestAssetStateHelpers(t *testing.T) {
	a := &Asset{UploadedStatus: StatusPending}
	assert.True(t, a.IsPending())
	assert.False(t, a.IsComplete())

	a.UploadedStatus = StatusComplete
	assert.True(t, a.IsComplete())
	assert.False(t, a.IsPending())
}
