package usecase_presence

import (
	"bytes"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultTimeout = 45 * time.Second

type Change struct {
	SessionID     uuid.UUID
	ParticipantID uuid.UUID
	Online        bool
}

// Tracker keeps the last heartbeat of every connection. A participant is
// online while at least one of its connections was heard from within the
// timeout.
type Tracker struct {
	mu       sync.Mutex
	timeout  time.Duration
	sessions map[uuid.UUID]map[uuid.UUID]map[string]time.Time
}

func New(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		timeout:  timeout,
		sessions: make(map[uuid.UUID]map[uuid.UUID]map[string]time.Time),
	}
}

func (t *Tracker) Timeout() time.Duration {
	return t.timeout
}

// Touch records a heartbeat from conn and reports whether the participant
// just came online.
func (t *Tracker) Touch(sessionID, participantID uuid.UUID, conn string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	participants, ok := t.sessions[sessionID]
	if !ok {
		participants = make(map[uuid.UUID]map[string]time.Time)
		t.sessions[sessionID] = participants
	}
	conns, ok := participants[participantID]
	if !ok {
		conns = make(map[string]time.Time)
		participants[participantID] = conns
	}
	cameOnline := len(conns) == 0
	conns[conn] = now
	return cameOnline
}

// Sweep forgets connections silent for longer than the timeout and returns
// the participants that went offline as a result.
func (t *Tracker) Sweep(now time.Time) []Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changes []Change
	for sessionID, participants := range t.sessions {
		for participantID, conns := range participants {
			for conn, seen := range conns {
				if now.Sub(seen) > t.timeout {
					delete(conns, conn)
				}
			}
			if len(conns) == 0 {
				delete(participants, participantID)
				changes = append(changes, Change{
					SessionID:     sessionID,
					ParticipantID: participantID,
					Online:        false,
				})
			}
		}
		if len(participants) == 0 {
			delete(t.sessions, sessionID)
		}
	}
	return changes
}

// Online returns the participants of a session that are currently online,
// ordered by id.
func (t *Tracker) Online(sessionID uuid.UUID) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]uuid.UUID, 0, len(t.sessions[sessionID]))
	for participantID := range t.sessions[sessionID] {
		out = append(out, participantID)
	}
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return out
}

// Forget drops all presence state of a deleted session without emitting changes.
func (t *Tracker) Forget(sessionID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.sessions, sessionID)
}
