package model

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventReactionApplied EventKind = "reaction_applied"
	EventMatchFound      EventKind = "match_found"
	EventPresenceChanged EventKind = "presence_changed"
	EventFiltersApplied  EventKind = "filters_applied"
	EventSessionClosed   EventKind = "session_closed"
)

type Event struct {
	Kind      EventKind `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	Payload   any       `json:"payload"`
}

type ReactionApplied struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        int64     `json:"item_id"`
	Decision      Decision  `json:"decision"`
}

type MatchFound struct {
	ItemID      int64     `json:"item_id"`
	AnnouncedAt time.Time `json:"announced_at"`
}

type PresenceChanged struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Online        bool      `json:"online"`
}

type FiltersApplied struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Signature     string    `json:"signature"`
}

// SessionClosed is the last event of a session. Receivers disconnect.
type SessionClosed struct {
	ClosedBy uuid.UUID `json:"closed_by"`
}

func NewReactionApplied(r Reaction) Event {
	return Event{
		Kind:      EventReactionApplied,
		SessionID: r.SessionID,
		Payload: ReactionApplied{
			ParticipantID: r.ParticipantID,
			ItemID:        r.ItemID,
			Decision:      r.Decision,
		},
	}
}

func NewMatchFound(m Match) Event {
	return Event{
		Kind:      EventMatchFound,
		SessionID: m.SessionID,
		Payload: MatchFound{
			ItemID:      m.Item.ItemID,
			AnnouncedAt: m.AnnouncedAt,
		},
	}
}

func NewPresenceChanged(sessionID, participantID uuid.UUID, online bool) Event {
	return Event{
		Kind:      EventPresenceChanged,
		SessionID: sessionID,
		Payload: PresenceChanged{
			ParticipantID: participantID,
			Online:        online,
		},
	}
}

func NewFiltersApplied(sessionID, participantID uuid.UUID, signature string) Event {
	return Event{
		Kind:      EventFiltersApplied,
		SessionID: sessionID,
		Payload: FiltersApplied{
			ParticipantID: participantID,
			Signature:     signature,
		},
	}
}

func NewSessionClosed(sessionID, closedBy uuid.UUID) Event {
	return Event{
		Kind:      EventSessionClosed,
		SessionID: sessionID,
		Payload:   SessionClosed{ClosedBy: closedBy},
	}
}
