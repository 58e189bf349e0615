package models

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReturned = "returned"
)

// statusTransitions lists the allowed successor statuses for each status.
// Rejected and returned are terminal.
var statusTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusReturned},
	StatusRejected: {},
	StatusReturned: {},
}

// IsValidStatus reports whether s is one of the known booking statuses.
func IsValidStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether a booking may move from status `from` to `to`.
// A no-op transition (from == to) is always allowed.
func CanTransition(from, to string) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
