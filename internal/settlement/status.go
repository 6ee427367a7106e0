package settlement

import "time"

// Status is the payment state of a transaction.
type Status string

const (
	StatusDraft  Status = "draft"
	StatusUnpaid Status = "unpaid"
	StatusPaid   Status = "paid"
)

var validNext = map[Status]map[Status]bool{
	StatusDraft:  {StatusDraft: true, StatusUnpaid: true, StatusPaid: true},
	StatusUnpaid: {StatusDraft: true, StatusUnpaid: true, StatusPaid: true},
	StatusPaid:   {StatusPaid: true},
}

// StatusOf derives the state from the persisted columns. A set paid time wins
// over the draft flag.
func StatusOf(isSaved bool, paidTime *time.Time) Status {
	switch {
	case paidTime != nil:
		return StatusPaid
	case isSaved:
		return StatusDraft
	default:
		return StatusUnpaid
	}
}

// TargetStatus is the state a transaction will be in once an edit is applied.
func TargetStatus(isSaved, paid bool) Status {
	switch {
	case isSaved:
		return StatusDraft
	case paid:
		return StatusPaid
	default:
		return StatusUnpaid
	}
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Transition returns a conflict error when from cannot move to to.
func Transition(from, to Status) error {
	if !CanTransition(from, to) {
		return Conflict("is_saved", "A %s transaction cannot be moved back to %s.", from, to)
	}
	return nil
}
