package model

import (
	"time"

	"github.com/google/uuid"
)

type Decision string

const (
	Like    Decision = "like"
	Dislike Decision = "dislike"
)

func (d Decision) Valid() bool {
	return d == Like || d == Dislike
}

// Reaction is keyed by (SessionID, ParticipantID, ItemID). A later write
// with the same key replaces the earlier one. Signature names the filters
// whose cursor the reaction advanced.
type Reaction struct {
	SessionID     uuid.UUID `json:"session_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        int64     `json:"item_id"`
	Decision      Decision  `json:"decision"`
	Signature     string    `json:"signature"`
	At            time.Time `json:"at"`
}

type Match struct {
	SessionID   uuid.UUID     `json:"session_id"`
	Item        CandidateItem `json:"item"`
	AnnouncedAt time.Time     `json:"announced_at"`
}
