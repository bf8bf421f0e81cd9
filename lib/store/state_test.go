package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"running to stopped", StatusRunning, StatusStopped, false},
		{"running to terminated", StatusRunning, StatusTerminated, false},
		{"stopped to running", StatusStopped, StatusRunning, false},
		{"stopped to terminated", StatusStopped, StatusTerminated, false},
		{"terminated to running", StatusTerminated, StatusRunning, true},
		{"terminated to stopped", StatusTerminated, StatusStopped, true},
		{"terminated to terminated", StatusTerminated, StatusTerminated, true},
		{"running to running", StatusRunning, StatusRunning, true},
		{"unknown status", Status("rebooting"), StatusRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.CanTransitionTo(tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusRunning.IsTerminal())
	assert.False(t, StatusStopped.IsTerminal())
	assert.True(t, StatusTerminated.IsTerminal())
}
