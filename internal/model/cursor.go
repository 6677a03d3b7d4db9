package model

import "github.com/google/uuid"

type CursorKey struct {
	SessionID     uuid.UUID
	ParticipantID uuid.UUID
	Signature     string
}

// Cursor is the offset into a participant's deduplicated candidate sequence
// for one filter signature.
type Cursor struct {
	CursorKey
	Index int
}
