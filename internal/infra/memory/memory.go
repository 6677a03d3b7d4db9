// Package infra_memory keeps every repository of a session in process
// memory. It backs STORAGE_DRIVER=memory and the engine's scenario tests.
package infra_memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
)

type reactionKey struct {
	session     uuid.UUID
	participant uuid.UUID
	item        int64
}

type reactionRow struct {
	model.Reaction
	seq int64
}

type announceKey struct {
	session uuid.UUID
	item    int64
}

type Store struct {
	mu sync.RWMutex

	sessions     map[uuid.UUID]model.Session
	codes        map[string]uuid.UUID
	participants map[uuid.UUID]model.Participant
	members      map[uuid.UUID][]uuid.UUID

	snapshots map[uuid.UUID]map[string]model.FilterSpec
	active    map[uuid.UUID]string
	cursors   map[model.CursorKey]int

	items      map[int64]model.CandidateItem
	byExternal map[int64]int64
	nextItemID int64

	reactions map[reactionKey]reactionRow
	seq       int64
	announced map[announceKey]time.Time
}

func New() *Store {
	return &Store{
		sessions:     make(map[uuid.UUID]model.Session),
		codes:        make(map[string]uuid.UUID),
		participants: make(map[uuid.UUID]model.Participant),
		members:      make(map[uuid.UUID][]uuid.UUID),
		snapshots:    make(map[uuid.UUID]map[string]model.FilterSpec),
		active:       make(map[uuid.UUID]string),
		cursors:      make(map[model.CursorKey]int),
		items:        make(map[int64]model.CandidateItem),
		byExternal:   make(map[int64]int64),
		reactions:    make(map[reactionKey]reactionRow),
		announced:    make(map[announceKey]time.Time),
	}
}

// Storage exposes the store through the engine's repository set.
func (s *Store) Storage() usecase_session.Storage {
	return usecase_session.Storage{
		Sessions: (*Sessions)(s),
		Filters:  (*Filters)(s),
		Cursors:  (*Cursors)(s),
		Items:    (*Items)(s),
		Ledger:   (*Ledger)(s),
		Matches:  (*Announcements)(s),
	}
}

func (s *Store) Ledger() *Ledger {
	return (*Ledger)(s)
}

func (s *Store) Announcements() *Announcements {
	return (*Announcements)(s)
}

func (s *Store) liveSession(id uuid.UUID, now time.Time) (model.Session, bool) {
	session, ok := s.sessions[id]
	if !ok || session.Expired(now) {
		return model.Session{}, false
	}
	return session, true
}

// dropSession removes a session with everything that hangs off it.
func (s *Store) dropSession(id uuid.UUID) {
	session := s.sessions[id]
	delete(s.codes, session.Code)
	delete(s.sessions, id)
	delete(s.members, id)
	delete(s.snapshots, id)
	delete(s.active, id)
	for k := range s.cursors {
		if k.SessionID == id {
			delete(s.cursors, k)
		}
	}
	for k := range s.reactions {
		if k.session == id {
			delete(s.reactions, k)
		}
	}
	for k := range s.announced {
		if k.session == id {
			delete(s.announced, k)
		}
	}
}

type Sessions Store

func (r *Sessions) store() *Store { return (*Store)(r) }

func (r *Sessions) Create(ctx context.Context, session model.Session) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[session.Code]; taken {
		return usecase_session.ErrCodeConflict
	}
	s.sessions[session.ID] = session
	s.codes[session.Code] = session.ID
	return nil
}

func (r *Sessions) ByCode(ctx context.Context, code string, now time.Time) (model.Session, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.codes[strings.ToUpper(code)]
	if !ok {
		return model.Session{}, usecase_session.ErrSessionNotFound
	}
	session, ok := s.liveSession(id, now)
	if !ok {
		return model.Session{}, usecase_session.ErrSessionNotFound
	}
	return session, nil
}

func (r *Sessions) ByID(ctx context.Context, id uuid.UUID, now time.Time) (model.Session, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.liveSession(id, now)
	if !ok {
		return model.Session{}, usecase_session.ErrSessionNotFound
	}
	return session, nil
}

func (r *Sessions) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return usecase_session.ErrSessionNotFound
	}
	s.dropSession(id)
	return nil
}

func (r *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			s.dropSession(id)
			removed++
		}
	}
	return removed, nil
}

func (r *Sessions) UpsertParticipant(ctx context.Context, p model.Participant) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.participants[p.ID] = p
	return nil
}

func (r *Sessions) AddMember(ctx context.Context, sessionID, participantID uuid.UUID) error {
	s := r.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return usecase_session.ErrSessionNotFound
	}
	if slices.Contains(s.members[sessionID], participantID) {
		return nil
	}
	s.members[sessionID] = append(s.members[sessionID], participantID)
	return nil
}

func (r *Sessions) IsMember(ctx context.Context, sessionID, participantID uuid.UUID) (bool, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.members[sessionID], participantID), nil
}

func (r *Sessions) Members(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	s := r.store()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Participant, 0, len(s.members[sessionID]))
	for _, id := range s.members[sessionID] {
		out = append(out, s.participants[id])
	}
	return out, nil
}

type Filters Store

func (r *Filters) SaveActive(ctx context.Context, sessionID uuid.UUID, spec model.FilterSpec, signature string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return usecase_session.ErrSessionNotFound
	}
	if s.snapshots[sessionID] == nil {
		s.snapshots[sessionID] = make(map[string]model.FilterSpec)
	}
	s.snapshots[sessionID][signature] = spec
	s.active[sessionID] = signature
	return nil
}

func (r *Filters) Active(ctx context.Context, sessionID uuid.UUID) (model.FilterSpec, bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	signature, ok := s.active[sessionID]
	if !ok {
		return model.FilterSpec{}, false, nil
	}
	return s.snapshots[sessionID][signature], true, nil
}

func (r *Filters) BySignature(ctx context.Context, sessionID uuid.UUID, signature string) (model.FilterSpec, bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.snapshots[sessionID][signature]
	return spec, ok, nil
}

type Cursors Store

func (r *Cursors) Load(ctx context.Context, key model.CursorKey) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cursors[key], nil
}

func (r *Cursors) Advance(ctx context.Context, key model.CursorKey, delta int) (int, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	index := max(0, s.cursors[key]+delta)
	s.cursors[key] = index
	return index, nil
}

type Items Store

func (r *Items) Upsert(ctx context.Context, item model.CandidateItem) (model.CandidateItem, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byExternal[item.ExternalID]
	if !ok {
		s.nextItemID++
		id = s.nextItemID
		s.byExternal[item.ExternalID] = id
	}
	item.ItemID = id
	item.Tags = slices.Clone(item.Tags)
	s.items[id] = item
	return item, nil
}

func (r *Items) ByID(ctx context.Context, itemID int64) (model.CandidateItem, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return model.CandidateItem{}, usecase_session.ErrItemNotFound
	}
	return item, nil
}

type Ledger Store

// Upsert keeps the reaction with the latest At for its key.
func (r *Ledger) Upsert(ctx context.Context, reaction model.Reaction) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[reaction.SessionID]; !ok {
		return usecase_session.ErrSessionNotFound
	}
	if _, ok := s.items[reaction.ItemID]; !ok {
		return usecase_session.ErrItemNotFound
	}

	key := reactionKey{reaction.SessionID, reaction.ParticipantID, reaction.ItemID}
	if prev, ok := s.reactions[key]; ok && prev.At.After(reaction.At) {
		return nil
	}
	s.seq++
	s.reactions[key] = reactionRow{Reaction: reaction, seq: s.seq}
	return nil
}

func (r *Ledger) Delete(ctx context.Context, sessionID, participantID uuid.UUID, itemID int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reactions, reactionKey{sessionID, participantID, itemID})
	return nil
}

func (r *Ledger) Likers(ctx context.Context, sessionID uuid.UUID, itemID int64) ([]uuid.UUID, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []reactionRow
	for k, row := range s.reactions {
		if k.session == sessionID && k.item == itemID && row.Decision == model.Like {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ParticipantID)
	}
	return out, nil
}

func (r *Ledger) Latest(ctx context.Context, sessionID, participantID uuid.UUID) (model.Reaction, bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest reactionRow
		found  bool
	)
	for k, row := range s.reactions {
		if k.session != sessionID || k.participant != participantID {
			continue
		}
		if !found || row.At.After(latest.At) || (row.At.Equal(latest.At) && row.seq > latest.seq) {
			latest, found = row, true
		}
	}
	return latest.Reaction, found, nil
}

type Announcements Store

func (r *Announcements) MarkAnnounced(ctx context.Context, sessionID uuid.UUID, itemID int64, at time.Time) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	key := announceKey{sessionID, itemID}
	if _, ok := s.announced[key]; ok {
		return false, nil
	}
	s.announced[key] = at
	return true, nil
}

func (r *Announcements) Matches(ctx context.Context, sessionID uuid.UUID) ([]model.Match, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Match{}
	for k, at := range s.announced {
		if k.session != sessionID {
			continue
		}
		out = append(out, model.Match{
			SessionID:   sessionID,
			Item:        s.items[k.item],
			AnnouncedAt: at,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.Title < out[j].Item.Title })
	return out, nil
}
