package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{
	StatusReserved, StatusScheduled, StatusCompleted,
	StatusCancelled, StatusRescheduled, StatusNoShow,
}

func TestTransitionTable(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusReserved, StatusScheduled}:      true,
		{StatusReserved, StatusCancelled}:      true,
		{StatusScheduled, StatusCancelled}:     true,
		{StatusScheduled, StatusRescheduled}:   true,
		{StatusScheduled, StatusCompleted}:     true,
		{StatusScheduled, StatusNoShow}:        true,
		{StatusRescheduled, StatusCancelled}:   true,
		{StatusRescheduled, StatusRescheduled}: true,
		{StatusRescheduled, StatusCompleted}:   true,
		{StatusRescheduled, StatusNoShow}:      true,
	}

	// Every (from, to) pair outside the table must fail, every pair inside
	// must pass.
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := checkTransition(from, to)
			if legal[[2]Status{from, to}] {
				assert.NoError(t, err, "%s -> %s should be legal", from, to)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be illegal", from, to)
			}
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		assert.Empty(t, legalTransitions[terminal])
	}
}
