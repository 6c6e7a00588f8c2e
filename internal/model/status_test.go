package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []OrderStatus{
	StatusPending, StatusApproved, StatusDelivering, StatusDelivered, StatusCancelled,
}

// allowed is the full edge set of the lifecycle.  Every pair not listed
// here must be rejected.
var allowed = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:    {StatusApproved: true, StatusCancelled: true},
	StatusApproved:   {StatusDelivering: true, StatusCancelled: true},
	StatusDelivering: {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func TestTransitionTableExhaustive(t *testing.T) {
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			got, err := from.Transition(to)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, got)
				continue
			}
			var illegal *IllegalTransitionError
			require.ErrorAs(t, err, &illegal, "%s -> %s", from, to)
			assert.Equal(t, from, illegal.From)
			assert.Equal(t, to, illegal.To)
			assert.False(t, from.CanTransitionTo(to))
		}
	}
}

func TestTransitionUnknownTarget(t *testing.T) {
	_, err := StatusPending.Transition("SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	for _, s := range []OrderStatus{StatusPending, StatusApproved, StatusDelivering} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	// Names are exact; the lowercase form is not accepted.
	for _, bad := range []string{"", "pending", "UNKNOWN", "Delivered"} {
		_, err := ParseStatus(bad)
		assert.ErrorIs(t, err, ErrInvalidStatus, bad)
	}
}
