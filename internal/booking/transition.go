package booking

// legalTransitions is the full lifecycle of an appointment. Completed,
// Cancelled and NoShow are terminal. A rescheduled visit is still a future
// visit, so it carries the same outgoing edges as a scheduled one.
var legalTransitions = map[Status][]Status{
	StatusReserved:    {StatusScheduled, StatusCancelled},
	StatusScheduled:   {StatusCancelled, StatusRescheduled, StatusCompleted, StatusNoShow},
	StatusRescheduled: {StatusCancelled, StatusRescheduled, StatusCompleted, StatusNoShow},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusNoShow:      {},
}

func canTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition returns ErrInvalidTransition for any (from, to) pair
// outside the table. Time-based guards (cancel notice, visit started) are
// enforced by the service on top of this.
func checkTransition(from, to Status) error {
	if !canTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
