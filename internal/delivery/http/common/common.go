package http_common

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
	usecase_movie "github.com/humanbelnik/kinomatch/internal/usecase/movie"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
)

// TokenHeader carries the participant id. It is issued on the first
// create or join and echoed back by clients afterwards.
const TokenHeader = "X-user-token"

type ErrorResponse struct {
	Message string `json:"message" example:"not found"`
}

var statuses = []struct {
	err     error
	status  int
	message string
}{
	{usecase_session.ErrSessionNotFound, http.StatusNotFound, "session not found"},
	{usecase_session.ErrItemNotFound, http.StatusNotFound, "item not found"},
	{usecase_movie.ErrMovieNotFound, http.StatusNotFound, "movie not found"},
	{usecase_session.ErrInvalidFilterSpec, http.StatusBadRequest, "invalid filters"},
	{usecase_session.ErrInvalidReaction, http.StatusBadRequest, "invalid reaction"},
	{usecase_session.ErrInvalidItem, http.StatusBadRequest, "invalid item"},
	{usecase_movie.ErrInvalidInput, http.StatusBadRequest, "invalid input"},
	{usecase_session.ErrNotMember, http.StatusForbidden, "not a member of the session"},
	{usecase_session.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, "unavailable"},
	{usecase_session.ErrLedgerWriteFailed, http.StatusServiceUnavailable, "unavailable"},
	{usecase_feed.ErrFeedUnavailable, http.StatusBadGateway, "feed unavailable"},
	{usecase_movie.ErrDetailsUnavailable, http.StatusBadGateway, "details unavailable"},
}

// Status maps a usecase error to an HTTP status and a client message.
func Status(err error) (int, string) {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status, s.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// Fail logs err under msg and writes the mapped response.
func Fail(ctx *gin.Context, logger *slog.Logger, msg string, err error) {
	status, message := Status(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	} else {
		logger.Warn(msg, slog.String("error", err.Error()))
	}
	ctx.AbortWithStatusJSON(status, ErrorResponse{Message: message})
}

func BadRequest(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: message})
}

// Participant reads the caller's id from the token header, falling back to
// the token query parameter for browser websocket clients.
func Participant(ctx *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(ctx.GetHeader(TokenHeader))
	if raw == "" {
		raw = strings.TrimSpace(ctx.Query("token"))
	}
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RequireParticipant aborts with 401 when the caller has no valid token.
func RequireParticipant(ctx *gin.Context) (uuid.UUID, bool) {
	id, ok := Participant(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: TokenHeader + " not found",
		})
		return uuid.Nil, false
	}
	return id, true
}

// IssueParticipant returns the caller's id, minting one when absent. The id
// is always echoed in the response header.
func IssueParticipant(ctx *gin.Context) uuid.UUID {
	id, ok := Participant(ctx)
	if !ok {
		id = uuid.New()
	}
	ctx.Header(TokenHeader, id.String())
	return id
}

// SessionID parses the :session_id path parameter.
func SessionID(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("session_id"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Message: "session not found"})
		return uuid.Nil, false
	}
	return id, true
}

type MembershipChecker interface {
	IsMember(ctx context.Context, sessionID, participantID uuid.UUID) (bool, error)
}

// RequireMember aborts with 403 unless the participant belongs to the
// session, or with 404 when the session does not exist.
func RequireMember(ctx *gin.Context, checker MembershipChecker, logger *slog.Logger, sessionID, participantID uuid.UUID) bool {
	member, err := checker.IsMember(ctx.Request.Context(), sessionID, participantID)
	if err != nil {
		Fail(ctx, logger, "failed to check membership", err)
		return false
	}
	if !member {
		Fail(ctx, logger, "not a member", usecase_session.ErrNotMember)
		return false
	}
	return true
}
