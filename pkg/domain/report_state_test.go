package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportStateTransitions(t *testing.T) {
	allowed := []struct {
		from, to ReportState
	}{
		{StateOpen, StateAssigned},
		{StateAssigned, StatePendingClosure},
		{StateAssigned, StateAssigned},
		{StateAssigned, StateOpen},
		{StatePendingClosure, StateClosed},
		{StatePendingClosure, StateAssigned},
		{StateClosed, StateOpen},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransition(tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	forbidden := []struct {
		from, to ReportState
	}{
		{StateOpen, StateClosed},
		{StateOpen, StatePendingClosure},
		{StateOpen, StateOpen},
		{StateAssigned, StateClosed},
		{StatePendingClosure, StateOpen},
		{StatePendingClosure, StatePendingClosure},
		{StateClosed, StateAssigned},
		{StateClosed, StateClosed},
		{StateClosed, StatePendingClosure},
	}
	for _, tc := range forbidden {
		assert.False(t, tc.from.CanTransition(tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestParseReportState(t *testing.T) {
	for _, raw := range []string{"abierto", "asignado", "pendiente_cierre", "cerrado"} {
		state, err := ParseReportState(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, state.String())
	}

	_, err := ParseReportState("archivado")
	require.Error(t, err)
}

func TestTerminal(t *testing.T) {
	for _, state := range []ReportState{StateOpen, StateAssigned, StatePendingClosure} {
		assert.False(t, state.Terminal(), "%s is not a resting state", state)
	}
	// Closed is the resting state even though admins can still reopen.
	assert.True(t, StateClosed.Terminal())
}
