package service

import "errors"

// The reservation core surfaces a small typed taxonomy: conflicts (a span or
// day is taken), not-found per entity, duplicate waitlist enrollment, and
// invariant violations the read path refuses to guess around.
var (
	ErrDateSpanUnavailable = errors.New("requested 3-day span overlaps an existing booking window")
	ErrDateOutsideWindow   = errors.New("date falls outside the booking window's span")
	ErrDayNotOccupied      = errors.New("day is not occupied by the referenced booking window")
	ErrDayAlreadyConfirmed = errors.New("day already has a confirmed jump")
	ErrDepositNotPending   = errors.New("booking window is not awaiting a deposit")
	ErrWindowCanceled      = errors.New("booking window is canceled")

	ErrWindowNotFound   = errors.New("booking window not found")
	ErrWaitlistNotFound = errors.New("waitlist not found")
	ErrEntryNotFound    = errors.New("waitlist entry not found")
	ErrJumpNotFound     = errors.New("scheduled jump not found")

	ErrAlreadyOnWaitlist = errors.New("user already has an active entry on this waitlist")
	ErrNotFrontOfQueue   = errors.New("only the entry at position 1 can be promoted")
	ErrJumpNotActive     = errors.New("scheduled jump is not in a schedulable state")

	ErrInvariantViolation = errors.New("reservation state violates a core invariant")
)
