package errors

import "errors"

var (
	ErrContextNotFound       = errors.New("decision context not found")
	ErrDecisionNotFound      = errors.New("decision not found")
	ErrDecisionAlreadyLinked = errors.New("decision already linked to a poll")
	ErrInvalidProposal       = errors.New("decision proposal has too few options")
	ErrPollNotFound          = errors.New("poll not found")
	ErrPollAlreadyClosed     = errors.New("poll already closed")
	ErrInvalidTransition     = errors.New("invalid poll status transition")
	ErrInvalidOverride       = errors.New("invalid poll override")
	ErrInvalidConfigChange   = errors.New("invalid config change")
	ErrInvalidBrakeRequest   = errors.New("invalid emergency brake request")
	ErrInvalidScore          = errors.New("success score must be within [0,1]")
	ErrInvalidAdminInput     = errors.New("invalid admin input")
	ErrVersionConflict       = errors.New("version conflict")
	ErrUnknownStage          = errors.New("unknown pipeline stage")
	ErrConflict              = errors.New("conflict")
)
