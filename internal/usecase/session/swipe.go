package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/humanbelnik/kinomatch/internal/model"
)

type SwipeResult struct {
	Accepted bool         `json:"accepted"`
	Matched  bool         `json:"matched"`
	Cursor   model.Cursor `json:"cursor"`
}

// Materialize resolves a feed item to its local id, creating it on first
// sight.
func (u *Usecase) Materialize(ctx context.Context, item model.CandidateItem) (model.CandidateItem, error) {
	if item.ExternalID <= 0 || strings.TrimSpace(item.Title) == model.EmptyTitle {
		return model.CandidateItem{}, ErrInvalidItem
	}
	stored, err := u.items.Upsert(ctx, item)
	if err != nil {
		return model.CandidateItem{}, errors.Join(ErrInternal, err)
	}
	return stored, nil
}

// RecordSwipe writes the reaction and, once it is durable, advances the
// participant's cursor for the active filters and publishes the outcome.
// A failed ledger write leaves the cursor where it was.
func (u *Usecase) RecordSwipe(
	ctx context.Context,
	sessionID, participantID uuid.UUID,
	itemID int64,
	decision model.Decision,
) (SwipeResult, error) {
	if !decision.Valid() || itemID <= 0 {
		return SwipeResult{}, ErrInvalidReaction
	}

	session, err := u.member(ctx, sessionID, participantID)
	if err != nil {
		return SwipeResult{}, err
	}

	// The reaction remembers which cursor it moves so that Undo can step
	// that one back after a filter change.
	_, signature, err := u.activeFilters(ctx, session)
	if err != nil {
		u.logger.Error("active filters unavailable",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
	}

	reaction := model.Reaction{
		SessionID:     sessionID,
		ParticipantID: participantID,
		ItemID:        itemID,
		Decision:      decision,
		Signature:     signature,
		At:            u.now().UTC(),
	}

	if err := u.writeLedger(ctx, func(ctx context.Context) error {
		return u.ledger.Upsert(ctx, reaction)
	}); err != nil {
		return SwipeResult{}, err
	}

	result := SwipeResult{Accepted: true}

	var match model.Match
	if decision == model.Like {
		match, result.Matched, err = u.detector.Evaluate(ctx, sessionID, itemID, reaction.At)
		if err != nil {
			u.logger.Error("match evaluation failed",
				slog.String("session_id", sessionID.String()),
				slog.Int64("item_id", itemID),
				slog.String("error", err.Error()))
		}
	}

	result.Cursor = u.moveCursor(ctx, session, participantID, signature, 1)

	u.publish(model.NewReactionApplied(reaction))
	if result.Matched {
		if item, err := u.items.ByID(ctx, itemID); err == nil {
			match.Item = item
		}
		u.publish(model.NewMatchFound(match))
	}

	return result, nil
}

// Undo removes the participant's most recent reaction in the session and
// steps back the cursor of the filters it was made under. It reports false when there is nothing to undo.
// Announced matches stay announced and no event is published.
func (u *Usecase) Undo(ctx context.Context, sessionID, participantID uuid.UUID) (int64, bool, error) {
	session, err := u.member(ctx, sessionID, participantID)
	if err != nil {
		return 0, false, err
	}

	latest, ok, err := u.ledger.Latest(ctx, sessionID, participantID)
	if err != nil {
		return 0, false, errors.Join(ErrInternal, err)
	}
	if !ok {
		return 0, false, nil
	}

	if err := u.writeLedger(ctx, func(ctx context.Context) error {
		return u.ledger.Delete(ctx, sessionID, participantID, latest.ItemID)
	}); err != nil {
		return 0, false, err
	}

	u.moveCursor(ctx, session, participantID, latest.Signature, -1)

	return latest.ItemID, true, nil
}

// Matches lists announced items of a session ordered by title.
func (u *Usecase) Matches(ctx context.Context, sessionID uuid.UUID) ([]model.Match, error) {
	if _, err := u.session(ctx, sessionID); err != nil {
		return nil, err
	}
	matches, err := u.matches.Matches(ctx, sessionID)
	if err != nil {
		return nil, errors.Join(ErrInternal, err)
	}
	slices.SortStableFunc(matches, func(a, b model.Match) int {
		return strings.Compare(a.Item.Title, b.Item.Title)
	})
	return matches, nil
}

func (u *Usecase) writeLedger(ctx context.Context, write func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, u.ledgerTimeout)
	defer cancel()

	if err := write(ctx); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return errors.Join(ErrLedgerWriteFailed, err)
	}
	return nil
}

// moveCursor persists the cursor step for signature, or for the active
// filters when signature is empty, and keeps a cached window in line with
// it. Failures are logged; the reaction itself is already durable here.
func (u *Usecase) moveCursor(ctx context.Context, session model.Session, participantID uuid.UUID, signature string, delta int) model.Cursor {
	cursor := model.Cursor{CursorKey: model.CursorKey{
		SessionID:     session.ID,
		ParticipantID: participantID,
	}}

	if signature == "" {
		var err error
		if _, signature, err = u.activeFilters(ctx, session); err != nil {
			u.logger.Error("cursor not moved", slog.String("session_id", session.ID.String()), slog.String("error", err.Error()))
			return cursor
		}
	}
	cursor.Signature = signature

	index, err := u.cursors.Advance(ctx, cursor.CursorKey, delta)
	if err != nil {
		u.logger.Error("cursor not persisted",
			slog.String("session_id", session.ID.String()),
			slog.String("participant_id", participantID.String()),
			slog.String("error", err.Error()))
		return cursor
	}
	cursor.Index = index

	entry := u.windows.get(session.ID, participantID)
	entry.mu.Lock()
	if entry.w != nil && entry.w.Signature == signature {
		entry.w.Seek(index)
	}
	entry.mu.Unlock()

	return cursor
}
