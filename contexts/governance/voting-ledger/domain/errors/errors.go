package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidVoteInput    = errors.New("invalid vote input")
	ErrInvalidSession      = errors.New("invalid wallet session")
	ErrPollNotFound        = errors.New("poll not found")
	ErrPollNotActive       = errors.New("poll is not accepting votes")
	ErrVotingWindowClosed  = errors.New("voting window is closed")
	ErrOptionNotInPoll     = errors.New("option does not belong to poll")
	ErrCooldownActive      = errors.New("vote cooldown active")
	ErrIdempotencyConflict = errors.New("idempotency key conflict")
	ErrConflict            = errors.New("vote conflict")
	ErrVoteNotFound        = errors.New("vote not found")
)

// CooldownError carries the cooldown state so callers can tell the wallet when
// to come back. It matches ErrCooldownActive.
type CooldownError struct {
	LastVoteAt        time.Time
	CooldownExpiresAt time.Time
	HoursRemaining    int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %d hours remaining", ErrCooldownActive.Error(), e.HoursRemaining)
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldownActive
}
