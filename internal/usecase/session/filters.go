package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
	"golang.org/x/sync/errgroup"
)

const reloadConcurrency = 4

type FeedView struct {
	Signature string                `json:"signature"`
	Index     int                   `json:"index"`
	Items     []model.CandidateItem `json:"items"`
	Exhausted bool                  `json:"exhausted"`
}

// defaultFilters is the filter set of a session nobody configured yet. It is
// derived from the creation time so its signature stays stable.
func defaultFilters(session model.Session) model.FilterSpec {
	return model.DefaultFilterSpec(session.CreatedAt).Normalize()
}

func (u *Usecase) activeFilters(ctx context.Context, session model.Session) (model.FilterSpec, string, error) {
	spec, ok, err := u.filters.Active(ctx, session.ID)
	if err != nil {
		return model.FilterSpec{}, "", errors.Join(ErrInternal, err)
	}
	if !ok {
		spec = defaultFilters(session)
	}
	return spec, spec.Signature(), nil
}

func (u *Usecase) filtersBySignature(ctx context.Context, session model.Session, signature string) (model.FilterSpec, error) {
	if signature == "" {
		spec, _, err := u.activeFilters(ctx, session)
		return spec, err
	}
	if def := defaultFilters(session); def.Signature() == signature {
		return def, nil
	}
	spec, ok, err := u.filters.BySignature(ctx, session.ID, signature)
	if err != nil {
		return model.FilterSpec{}, errors.Join(ErrInternal, err)
	}
	if !ok {
		return model.FilterSpec{}, ErrInvalidFilterSpec
	}
	return spec, nil
}

// ApplyFilters replaces the session's active filters, last writer wins. A
// spec that fails validation is rejected and the previous one stays active.
// Every member's window is rebuilt from that member's own cursor for the new
// signature.
func (u *Usecase) ApplyFilters(ctx context.Context, sessionID uuid.UUID, spec model.FilterSpec, actingID uuid.UUID) (model.FilterSpec, error) {
	if _, err := u.member(ctx, sessionID, actingID); err != nil {
		return model.FilterSpec{}, err
	}

	spec = spec.Normalize()
	if err := spec.Validate(u.now()); err != nil {
		return model.FilterSpec{}, errors.Join(ErrInvalidFilterSpec, err)
	}
	signature := spec.Signature()

	if err := u.filters.SaveActive(ctx, sessionID, spec, signature); err != nil {
		return model.FilterSpec{}, errors.Join(ErrInternal, err)
	}
	u.windows.dropSession(sessionID)

	members, err := u.sessions.Members(ctx, sessionID)
	if err != nil {
		u.logger.Error("filters applied without reload", slog.String("session_id", sessionID.String()), slog.String("error", err.Error()))
	} else {
		u.reload(ctx, sessionID, members, spec)
	}

	u.logger.Info("filters applied",
		slog.String("session_id", sessionID.String()),
		slog.String("signature", signature))
	u.publish(model.NewFiltersApplied(sessionID, actingID, signature))

	return spec, nil
}

func (u *Usecase) reload(ctx context.Context, sessionID uuid.UUID, members []model.Participant, spec model.FilterSpec) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reloadConcurrency)

	for _, m := range members {
		g.Go(func() error {
			entry := u.windows.get(sessionID, m.ID)
			entry.mu.Lock()
			defer entry.mu.Unlock()

			w, err := u.resume(ctx, sessionID, m.ID, spec)
			if err != nil {
				u.logger.Warn("member feed reload failed",
					slog.String("session_id", sessionID.String()),
					slog.String("participant_id", m.ID.String()),
					slog.String("error", err.Error()))
				return nil
			}
			entry.w = w
			return nil
		})
	}
	_ = g.Wait()
}

// ResumeTo rebuilds the participant's candidate window for signature and
// positions it at the stored cursor. An empty signature means the active
// filters. The returned window is owned by the caller.
func (u *Usecase) ResumeTo(ctx context.Context, sessionID, participantID uuid.UUID, signature string) (*usecase_feed.Window, error) {
	session, err := u.member(ctx, sessionID, participantID)
	if err != nil {
		return nil, err
	}

	spec, err := u.filtersBySignature(ctx, session, signature)
	if err != nil {
		return nil, err
	}
	_, active, err := u.activeFilters(ctx, session)
	if err != nil {
		return nil, err
	}

	if spec.Signature() != active {
		return u.resume(ctx, sessionID, participantID, spec)
	}

	entry := u.windows.get(sessionID, participantID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	w, err := u.resume(ctx, sessionID, participantID, spec)
	if err != nil {
		return nil, err
	}
	entry.w = w
	// The cached window keeps moving under entry.mu; callers get a snapshot.
	return w.Clone(), nil
}

// Feed returns up to count candidates from the participant's cursor under
// the active filters.
func (u *Usecase) Feed(ctx context.Context, sessionID, participantID uuid.UUID, count int) (FeedView, error) {
	if count <= 0 {
		count = 1
	}

	session, err := u.member(ctx, sessionID, participantID)
	if err != nil {
		return FeedView{}, err
	}
	spec, signature, err := u.activeFilters(ctx, session)
	if err != nil {
		return FeedView{}, err
	}

	entry := u.windows.get(sessionID, participantID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.w == nil || entry.w.Signature != signature {
		w, err := u.resume(ctx, sessionID, participantID, spec)
		if err != nil {
			return FeedView{}, err
		}
		entry.w = w
	}

	fillCtx, cancel := context.WithTimeout(ctx, u.feedTimeout)
	defer cancel()
	if err := u.feed.Fill(fillCtx, entry.w, count); err != nil {
		return FeedView{}, err
	}

	items := entry.w.Upcoming(count)
	return FeedView{
		Signature: signature,
		Index:     entry.w.Index,
		Items:     items,
		Exhausted: entry.w.Exhausted && entry.w.Index+len(items) >= len(entry.w.Items),
	}, nil
}

func (u *Usecase) resume(ctx context.Context, sessionID, participantID uuid.UUID, spec model.FilterSpec) (*usecase_feed.Window, error) {
	key := model.CursorKey{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Signature:     spec.Signature(),
	}
	index, err := u.cursors.Load(ctx, key)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}

	ctx, cancel := context.WithTimeout(ctx, u.feedTimeout)
	defer cancel()

	return u.feed.Resume(ctx, spec, index)
}

type windowEntry struct {
	mu sync.Mutex
	w  *usecase_feed.Window
}

// windows caches each participant's window for the active signature.
type windows struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]map[uuid.UUID]*windowEntry
}

func newWindows() *windows {
	return &windows{sessions: make(map[uuid.UUID]map[uuid.UUID]*windowEntry)}
}

func (ws *windows) get(sessionID, participantID uuid.UUID) *windowEntry {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	participants, ok := ws.sessions[sessionID]
	if !ok {
		participants = make(map[uuid.UUID]*windowEntry)
		ws.sessions[sessionID] = participants
	}
	entry, ok := participants[participantID]
	if !ok {
		entry = &windowEntry{}
		participants[participantID] = entry
	}
	return entry
}

func (ws *windows) dropSession(sessionID uuid.UUID) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	delete(ws.sessions, sessionID)
}
