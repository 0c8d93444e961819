package invoice

// allowedTransitions is the full lifecycle graph. PAID and CANCELLED are
// terminal: nothing moves out of them, not even a self-transition.
var allowedTransitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusPaid, StatusOverdue, StatusCancelled},
	StatusOverdue:   {StatusPaid, StatusCancelled},
	StatusPaid:      {},
	StatusCancelled: {},
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s Status) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether moving from one status to another is legal.
// It never mutates anything; callers apply the new status only after an
// affirmative check.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition applies a status change after validating it against the
// lifecycle graph. The invoice is left untouched on failure.
func (inv *Invoice) Transition(to Status) error {
	if !ValidStatus(to) {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	if !CanTransition(inv.Status, to) {
		return &InvalidTransitionError{From: inv.Status, To: to}
	}
	inv.Status = to
	return nil
}
