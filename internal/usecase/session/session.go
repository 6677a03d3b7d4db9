package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
)

//go:generate mockery --name=SessionRepository --output=./mocks/session/repository --filename=repository.go
type SessionRepository interface {
	// Create returns ErrCodeConflict when the code is taken.
	Create(ctx context.Context, s model.Session) error
	ByCode(ctx context.Context, code string, now time.Time) (model.Session, error)
	ByID(ctx context.Context, id uuid.UUID, now time.Time) (model.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	UpsertParticipant(ctx context.Context, p model.Participant) error
	AddMember(ctx context.Context, sessionID, participantID uuid.UUID) error
	IsMember(ctx context.Context, sessionID, participantID uuid.UUID) (bool, error)
	Members(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error)
}

//go:generate mockery --name=FilterRepository --output=./mocks/session/filter --filename=filter.go
type FilterRepository interface {
	// SaveActive stores the snapshot under its signature and makes it the
	// session's active one.
	SaveActive(ctx context.Context, sessionID uuid.UUID, spec model.FilterSpec, signature string) error
	Active(ctx context.Context, sessionID uuid.UUID) (model.FilterSpec, bool, error)
	BySignature(ctx context.Context, sessionID uuid.UUID, signature string) (model.FilterSpec, bool, error)
}

//go:generate mockery --name=CursorRepository --output=./mocks/session/cursor --filename=cursor.go
type CursorRepository interface {
	// Load returns 0 for a cursor never written.
	Load(ctx context.Context, key model.CursorKey) (int, error)
	// Advance adds delta atomically, never going below zero, and returns the
	// new index.
	Advance(ctx context.Context, key model.CursorKey, delta int) (int, error)
}

//go:generate mockery --name=ItemRepository --output=./mocks/session/item --filename=item.go
type ItemRepository interface {
	// Upsert resolves an item by external id, assigning a local id on first
	// sight.
	Upsert(ctx context.Context, item model.CandidateItem) (model.CandidateItem, error)
	ByID(ctx context.Context, itemID int64) (model.CandidateItem, error)
}

//go:generate mockery --name=Ledger --output=./mocks/session/ledger --filename=ledger.go
type Ledger interface {
	Upsert(ctx context.Context, r model.Reaction) error
	Delete(ctx context.Context, sessionID, participantID uuid.UUID, itemID int64) error
	Latest(ctx context.Context, sessionID, participantID uuid.UUID) (model.Reaction, bool, error)
}

//go:generate mockery --name=MatchRepository --output=./mocks/session/match --filename=match.go
type MatchRepository interface {
	Matches(ctx context.Context, sessionID uuid.UUID) ([]model.Match, error)
}

//go:generate mockery --name=MatchDetector --output=./mocks/session/detector --filename=detector.go
type MatchDetector interface {
	Evaluate(ctx context.Context, sessionID uuid.UUID, itemID int64, at time.Time) (model.Match, bool, error)
}

//go:generate mockery --name=Feed --output=./mocks/session/feed --filename=feed.go
type Feed interface {
	Resume(ctx context.Context, filters model.FilterSpec, index int) (*usecase_feed.Window, error)
	Fill(ctx context.Context, w *usecase_feed.Window, count int) error
}

//go:generate mockery --name=Publisher --output=./mocks/session/publisher --filename=publisher.go
type Publisher interface {
	// Publish must not block.
	Publish(event model.Event)
}

type Presence interface {
	Online(sessionID uuid.UUID) []uuid.UUID
}

type Storage struct {
	Sessions SessionRepository
	Filters  FilterRepository
	Cursors  CursorRepository
	Items    ItemRepository
	Ledger   Ledger
	Matches  MatchRepository
}

const (
	defaultCodeAttempts  = 5
	defaultCleanupPeriod = 20
	defaultLedgerTimeout = 3 * time.Second
	defaultFeedTimeout   = 10 * time.Second
)

type Usecase struct {
	sessions SessionRepository
	filters  FilterRepository
	cursors  CursorRepository
	items    ItemRepository
	ledger   Ledger
	matches  MatchRepository

	detector  MatchDetector
	feed      Feed
	publisher Publisher
	presence  Presence

	windows *windows
	logger  *slog.Logger
	now     func() time.Time
	newCode func() string

	codeAttempts  int
	sessionTTL    time.Duration
	ledgerTimeout time.Duration
	feedTimeout   time.Duration

	// Expired sessions are removed on every Nth creation
	cleanupPeriod int64
	createdCount  atomic.Int64
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

func WithCodeGenerator(gen func() string) Option {
	return func(u *Usecase) {
		u.newCode = gen
	}
}

func WithCodeAttempts(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.codeAttempts = n
		}
	}
}

func WithCleanupPeriod(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.cleanupPeriod = int64(n)
		}
	}
}

// WithSessionTTL makes new sessions expire after ttl. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(u *Usecase) {
		u.sessionTTL = ttl
	}
}

func WithTimeouts(ledger, feed time.Duration) Option {
	return func(u *Usecase) {
		if ledger > 0 {
			u.ledgerTimeout = ledger
		}
		if feed > 0 {
			u.feedTimeout = feed
		}
	}
}

func WithPresence(p Presence) Option {
	return func(u *Usecase) {
		u.presence = p
	}
}

func New(
	storage Storage,
	detector MatchDetector,
	feed Feed,
	publisher Publisher,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		sessions:      storage.Sessions,
		filters:       storage.Filters,
		cursors:       storage.Cursors,
		items:         storage.Items,
		ledger:        storage.Ledger,
		matches:       storage.Matches,
		detector:      detector,
		feed:          feed,
		publisher:     publisher,
		windows:       newWindows(),
		logger:        slog.Default(),
		now:           time.Now,
		newCode:       RandomCode,
		codeAttempts:  defaultCodeAttempts,
		cleanupPeriod: defaultCleanupPeriod,
		ledgerTimeout: defaultLedgerTimeout,
		feedTimeout:   defaultFeedTimeout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// RandomCode draws a session code from model.CodeAlphabet.
func RandomCode() string {
	var builder strings.Builder
	builder.Grow(model.CodeLength)

	for range model.CodeLength {
		builder.WriteByte(model.CodeAlphabet[rand.Intn(len(model.CodeAlphabet))])
	}

	return builder.String()
}

func (u *Usecase) CreateSession(ctx context.Context) (model.Session, error) {
	if u.createdCount.Add(1)%u.cleanupPeriod == 0 {
		removed, err := u.sessions.DeleteExpired(ctx, u.now())
		if err != nil {
			u.logger.Warn("expired sessions cleanup failed", slog.String("error", err.Error()))
		} else if removed > 0 {
			u.logger.Info("expired sessions removed", slog.Int64("count", removed))
		}
	}

	// Codes may collide. Retrying...
	for attempt := 0; attempt < u.codeAttempts; attempt++ {
		now := u.now().UTC()
		session := model.Session{
			ID:        uuid.New(),
			Code:      u.newCode(),
			CreatedAt: now,
		}
		if u.sessionTTL > 0 {
			expires := now.Add(u.sessionTTL)
			session.ExpiresAt = &expires
		}

		err := u.sessions.Create(ctx, session)
		if err == nil {
			u.logger.Info("session created",
				slog.String("session_id", session.ID.String()),
				slog.String("code", session.Code))
			return session, nil
		}
		if !errors.Is(err, ErrCodeConflict) {
			return model.Session{}, errors.Join(ErrInternal, err)
		}
		u.logger.Debug("session code collision", slog.String("code", session.Code), slog.Int("attempt", attempt+1))
	}

	return model.Session{}, ErrCodeGenerationExhausted
}

// JoinSession resolves code case-insensitively and makes the participant a
// member. Joining twice is a no-op.
func (u *Usecase) JoinSession(ctx context.Context, code string, participant model.Participant) (model.Session, error) {
	code = model.NormalizeCode(code)
	if !model.ValidCode(code) {
		return model.Session{}, ErrSessionNotFound
	}

	session, err := u.sessions.ByCode(ctx, code, u.now())
	if err != nil {
		return model.Session{}, u.mapSessionErr(err)
	}

	if err := u.join(ctx, session.ID, participant); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// JoinByID is JoinSession for callers that already hold the session id.
func (u *Usecase) JoinByID(ctx context.Context, sessionID uuid.UUID, participant model.Participant) (model.Session, error) {
	session, err := u.session(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	if err := u.join(ctx, session.ID, participant); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

func (u *Usecase) join(ctx context.Context, sessionID uuid.UUID, participant model.Participant) error {
	participant.DisplayName = strings.TrimSpace(participant.DisplayName)
	if participant.DisplayName == "" {
		participant.DisplayName = model.DefaultDisplayName
	}

	if err := u.sessions.UpsertParticipant(ctx, participant); err != nil {
		return errors.Join(ErrInternal, err)
	}
	if err := u.sessions.AddMember(ctx, sessionID, participant.ID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return errors.Join(ErrInternal, err)
	}
	return nil
}

func (u *Usecase) IsMember(ctx context.Context, sessionID, participantID uuid.UUID) (bool, error) {
	if _, err := u.session(ctx, sessionID); err != nil {
		return false, err
	}
	ok, err := u.sessions.IsMember(ctx, sessionID, participantID)
	if err != nil {
		return false, errors.Join(ErrInternal, err)
	}
	return ok, nil
}

type State struct {
	Session   model.Session    `json:"session"`
	Members   []model.Member   `json:"members"`
	Filters   model.FilterSpec `json:"filters"`
	Signature string           `json:"signature"`
}

func (u *Usecase) State(ctx context.Context, sessionID uuid.UUID) (State, error) {
	session, err := u.session(ctx, sessionID)
	if err != nil {
		return State{}, err
	}

	participants, err := u.sessions.Members(ctx, sessionID)
	if err != nil {
		return State{}, errors.Join(ErrInternal, err)
	}

	online := map[uuid.UUID]bool{}
	if u.presence != nil {
		for _, id := range u.presence.Online(sessionID) {
			online[id] = true
		}
	}

	members := make([]model.Member, 0, len(participants))
	for _, p := range participants {
		members = append(members, model.Member{Participant: p, Online: online[p.ID]})
	}

	filters, signature, err := u.activeFilters(ctx, session)
	if err != nil {
		return State{}, err
	}

	return State{
		Session:   session,
		Members:   members,
		Filters:   filters,
		Signature: signature,
	}, nil
}

func (u *Usecase) DeleteSession(ctx context.Context, sessionID, actingID uuid.UUID) error {
	if _, err := u.member(ctx, sessionID, actingID); err != nil {
		return err
	}
	if err := u.sessions.Delete(ctx, sessionID); err != nil {
		return u.mapSessionErr(err)
	}
	u.windows.dropSession(sessionID)
	u.publish(model.NewSessionClosed(sessionID, actingID))
	u.logger.Info("session deleted", slog.String("session_id", sessionID.String()))
	return nil
}

func (u *Usecase) session(ctx context.Context, sessionID uuid.UUID) (model.Session, error) {
	session, err := u.sessions.ByID(ctx, sessionID, u.now())
	if err != nil {
		return model.Session{}, u.mapSessionErr(err)
	}
	return session, nil
}

// member loads the session and checks that participantID belongs to it.
func (u *Usecase) member(ctx context.Context, sessionID, participantID uuid.UUID) (model.Session, error) {
	session, err := u.session(ctx, sessionID)
	if err != nil {
		return model.Session{}, err
	}
	ok, err := u.sessions.IsMember(ctx, sessionID, participantID)
	if err != nil {
		return model.Session{}, errors.Join(ErrInternal, err)
	}
	if !ok {
		return model.Session{}, ErrNotMember
	}
	return session, nil
}

func (u *Usecase) mapSessionErr(err error) error {
	if errors.Is(err, ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return errors.Join(ErrInternal, err)
}

func (u *Usecase) publish(event model.Event) {
	if u.publisher == nil {
		return
	}
	u.publisher.Publish(event)
}
