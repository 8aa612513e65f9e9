package generic

// =============================================================================
// REQUEST STATUS - Lifecycle shared by every request kind
// =============================================================================

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// allowedTransitions lists every legal status change.
//
//	pending  -> approved | rejected
//	approved -> cancelled
var allowedTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestRejected},
	RequestApproved: {RequestCancelled},
}

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a request in s may move to next.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransitionError when the move is not allowed.
func CheckTransition(from, to RequestStatus) error {
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// CountsTowardBalance reports whether requests in this status affect balances.
func (s RequestStatus) CountsTowardBalance() bool {
	return s == RequestApproved
}
