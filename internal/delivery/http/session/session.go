package http_session

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	http_common "github.com/humanbelnik/kinomatch/internal/delivery/http/common"
	ws_session "github.com/humanbelnik/kinomatch/internal/delivery/ws/session"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Controller struct {
	uc  *usecase_session.Usecase
	hub *ws_session.Hub

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_session.Usecase,
	hub *ws_session.Hub,
	opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		hub:    hub,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	sessions.POST("", c.create)
	sessions.POST("/join", c.join)

	session := router.Group("/sessions/:session_id")
	session.GET("", c.state)
	session.DELETE("", c.delete)
	session.GET("/ws", c.sessionWS)
}

// CreateRequestDTO
type CreateRequestDTO struct {
	DisplayName string `json:"display_name" example:"Alice"`
}

// JoinRequestDTO
type JoinRequestDTO struct {
	Code        string `json:"code" binding:"required" example:"AB23CD"`
	DisplayName string `json:"display_name" example:"Bob"`
}

// SessionResponseDTO
type SessionResponseDTO struct {
	Session model.Session `json:"session"`
}

// @Summary Создание сессии
// @Description Создает сессию с кодом из 6 символов, создатель сразу становится участником
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateRequestDTO false "Имя участника"
// @Success 201 {object} SessionResponseDTO "Сессия создана"
// @Header 201 {string} X-user-token "Токен участника"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Failure 503 {object} http_common.ErrorResponse "Не удалось подобрать свободный код"
// @Router /sessions [post]
func (c *Controller) create(ctx *gin.Context) {
	var req CreateRequestDTO
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			http_common.BadRequest(ctx, "incorrect request")
			return
		}
	}
	participantID := http_common.IssueParticipant(ctx)

	session, err := c.uc.CreateSession(ctx.Request.Context())
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to create session", err)
		return
	}
	session, err = c.uc.JoinByID(ctx.Request.Context(), session.ID, model.Participant{
		ID:          participantID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to join created session", err)
		return
	}

	ctx.JSON(http.StatusCreated, SessionResponseDTO{Session: session})
}

// @Summary Вход в сессию по коду
// @Description Код нечувствителен к регистру. Повторный вход того же участника ничего не меняет
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body JoinRequestDTO true "Код сессии и имя"
// @Success 200 {object} SessionResponseDTO "Участник в сессии"
// @Header 200 {string} X-user-token "Токен участника"
// @Failure 400 {object} http_common.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Failure 500 {object} http_common.ErrorResponse "Внутренняя ошибка сервера"
// @Router /sessions/join [post]
func (c *Controller) join(ctx *gin.Context) {
	var req JoinRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.BadRequest(ctx, "incorrect request")
		return
	}
	participantID := http_common.IssueParticipant(ctx)

	session, err := c.uc.JoinSession(ctx.Request.Context(), req.Code, model.Participant{
		ID:          participantID,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to join session", err)
		return
	}

	ctx.JSON(http.StatusOK, SessionResponseDTO{Session: session})
}

// @Summary Состояние сессии
// @Description Участники с признаком онлайн и активные фильтры
// @Tags Sessions
// @Produce json
// @Param session_id path string true "ID сессии"
// @Success 200 {object} usecase_session.State "Состояние"
// @Failure 401 {object} http_common.ErrorResponse "Нет токена"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Security UserToken
// @Router /sessions/{session_id} [get]
func (c *Controller) state(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}
	if !http_common.RequireMember(ctx, c.uc, c.logger, sessionID, participantID) {
		return
	}

	state, err := c.uc.State(ctx.Request.Context(), sessionID)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to load session state", err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// @Summary Удаление сессии
// @Tags Sessions
// @Param session_id path string true "ID сессии"
// @Success 204 "Сессия удалена"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Security UserToken
// @Router /sessions/{session_id} [delete]
func (c *Controller) delete(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}

	if err := c.uc.DeleteSession(ctx.Request.Context(), sessionID, participantID); err != nil {
		http_common.Fail(ctx, c.logger, "failed to delete session", err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// @Summary Поток событий сессии
// @Description WebSocket. Клиент шлет {"type":"heartbeat"}, сервер шлет события {"type","session_id","payload"}
// @Tags Sessions
// @Param session_id path string true "ID сессии"
// @Param token query string false "Токен участника, если нельзя передать заголовок"
// @Success 101 "Switching Protocols"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Router /sessions/{session_id}/ws [get]
func (c *Controller) sessionWS(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}
	if !http_common.RequireMember(ctx, c.uc, c.logger, sessionID, participantID) {
		return
	}

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("failed to upgrade to websocket",
			slog.String("error", err.Error()),
		)
		return
	}

	c.hub.Attach(conn, sessionID, participantID)
}
