package usecase_session

import "errors"

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrCodeGenerationExhausted = errors.New("session code attempts exhausted")
	ErrCodeConflict            = errors.New("code conflict")
	ErrLedgerWriteFailed       = errors.New("ledger write failed")
	ErrInvalidFilterSpec       = errors.New("invalid filter spec")
	ErrInvalidReaction         = errors.New("invalid reaction")
	ErrInvalidItem             = errors.New("invalid item")
	ErrItemNotFound            = errors.New("item not found")
	ErrNotMember               = errors.New("participant is not a member of the session")
	ErrInternal                = errors.New("internal error")
)
