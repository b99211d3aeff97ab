package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusBooked))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))

	assert.True(t, StatusBooked.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusBooked.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusBooked.CanTransitionTo(StatusPending))

	assert.False(t, StatusCompleted.CanBeCancelled())
	assert.False(t, StatusCancelled.CanBeCancelled())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestParseBookingStatus(t *testing.T) {
	s, err := ParseBookingStatus("booked")
	require.NoError(t, err)
	assert.Equal(t, StatusBooked, s)

	_, err = ParseBookingStatus("Booked")
	assert.Error(t, err)
}
