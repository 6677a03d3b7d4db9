package http_swipe

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/kinomatch/internal/delivery/http/common"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_session "github.com/humanbelnik/kinomatch/internal/usecase/session"
)

const (
	defaultCount = 10
	maxCount     = 50
)

type Controller struct {
	uc *usecase_session.Usecase

	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_session.Usecase, opts ...ControllerOption) *Controller {
	c := &Controller{
		uc:     uc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	session := router.Group("/sessions/:session_id")
	session.PUT("/filters", c.applyFilters)
	session.GET("/feed", c.feed)
	session.POST("/resume", c.resume)
	session.POST("/swipes", c.swipe)
	session.POST("/undo", c.undo)
	session.GET("/matches", c.matches)
}

// FiltersResponseDTO
type FiltersResponseDTO struct {
	Filters   model.FilterSpec `json:"filters"`
	Signature string           `json:"signature" example:"18,35|2000|2024|7||popularity.desc"`
}

// ResumeRequestDTO
type ResumeRequestDTO struct {
	Signature string `json:"signature" example:"18,35|2000|2024|7||popularity.desc"`
}

// ItemDTO
type ItemDTO struct {
	ExternalID int64  `json:"external_id" example:"603"`
	Title      string `json:"title" example:"Матрица"`
	Year       int    `json:"year" example:"1999"`
	ImageURL   string `json:"image_url" example:"https://image.tmdb.org/t/p/w500/m.jpg"`
	Tags       []int  `json:"tags" example:"28,878"`
}

// SwipeRequestDTO carries either a feed item or a known item id.
type SwipeRequestDTO struct {
	Item     *ItemDTO `json:"item"`
	ItemID   int64    `json:"item_id" example:"42"`
	Decision string   `json:"decision" binding:"required" example:"like" enums:"like,dislike"`
}

// SwipeResponseDTO
type SwipeResponseDTO struct {
	ItemID int64 `json:"item_id" example:"42"`
	usecase_session.SwipeResult
}

// UndoResponseDTO
type UndoResponseDTO struct {
	Undone bool  `json:"undone" example:"true"`
	ItemID int64 `json:"item_id,omitempty" example:"42"`
}

// MatchesResponseDTO
type MatchesResponseDTO struct {
	Matches []model.Match `json:"matches"`
}

// @Summary Применение фильтров
// @Description Заменяет активные фильтры сессии. Курсоры участников хранятся отдельно для каждого набора фильтров
// @Tags Feed
// @Accept json
// @Produce json
// @Param session_id path string true "ID сессии"
// @Param request body model.FilterSpec true "Фильтры"
// @Success 200 {object} FiltersResponseDTO "Фильтры применены"
// @Failure 400 {object} http_common.ErrorResponse "Некорректные фильтры"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Security UserToken
// @Router /sessions/{session_id}/filters [put]
func (c *Controller) applyFilters(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}

	var spec model.FilterSpec
	if err := ctx.ShouldBindJSON(&spec); err != nil {
		http_common.BadRequest(ctx, "incorrect request")
		return
	}

	applied, err := c.uc.ApplyFilters(ctx.Request.Context(), sessionID, spec, participantID)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to apply filters", err)
		return
	}

	ctx.JSON(http.StatusOK, FiltersResponseDTO{
		Filters:   applied,
		Signature: applied.Signature(),
	})
}

// @Summary Лента кандидатов
// @Description Следующие фильмы от курсора участника для активных фильтров
// @Tags Feed
// @Produce json
// @Param session_id path string true "ID сессии"
// @Param count query int false "Сколько фильмов вернуть" default(10)
// @Success 200 {object} usecase_session.FeedView "Лента"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 502 {object} http_common.ErrorResponse "Источник фильмов недоступен"
// @Security UserToken
// @Router /sessions/{session_id}/feed [get]
func (c *Controller) feed(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}
	count, ok := parseCount(ctx)
	if !ok {
		return
	}

	view, err := c.uc.Feed(ctx.Request.Context(), sessionID, participantID, count)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to load feed", err)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// @Summary Восстановление позиции
// @Description Пересобирает ленту для набора фильтров и ставит ее на сохраненный курсор. Пустая сигнатура означает активные фильтры
// @Tags Feed
// @Accept json
// @Produce json
// @Param session_id path string true "ID сессии"
// @Param request body ResumeRequestDTO false "Сигнатура фильтров"
// @Param count query int false "Сколько фильмов вернуть" default(10)
// @Success 200 {object} usecase_session.FeedView "Лента с позиции курсора"
// @Failure 400 {object} http_common.ErrorResponse "Неизвестная сигнатура"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 502 {object} http_common.ErrorResponse "Источник фильмов недоступен"
// @Security UserToken
// @Router /sessions/{session_id}/resume [post]
func (c *Controller) resume(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}
	count, ok := parseCount(ctx)
	if !ok {
		return
	}

	var req ResumeRequestDTO
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			http_common.BadRequest(ctx, "incorrect request")
			return
		}
	}

	w, err := c.uc.ResumeTo(ctx.Request.Context(), sessionID, participantID, req.Signature)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to resume feed", err)
		return
	}

	items := w.Upcoming(count)
	ctx.JSON(http.StatusOK, usecase_session.FeedView{
		Signature: w.Signature,
		Index:     w.Index,
		Items:     items,
		Exhausted: w.Exhausted && w.Index+len(items) >= len(w.Items),
	})
}

// @Summary Реакция на фильм
// @Description Лайк или дизлайк. Повторная реакция на тот же фильм заменяет предыдущую
// @Tags Swipes
// @Accept json
// @Produce json
// @Param session_id path string true "ID сессии"
// @Param request body SwipeRequestDTO true "Фильм и решение"
// @Success 200 {object} SwipeResponseDTO "Реакция сохранена"
// @Failure 400 {object} http_common.ErrorResponse "Некорректная реакция"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 404 {object} http_common.ErrorResponse "Фильм не найден"
// @Failure 503 {object} http_common.ErrorResponse "Хранилище недоступно"
// @Security UserToken
// @Router /sessions/{session_id}/swipes [post]
func (c *Controller) swipe(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}

	var req SwipeRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.BadRequest(ctx, "incorrect request")
		return
	}

	itemID := req.ItemID
	if req.Item != nil {
		item, err := c.uc.Materialize(ctx.Request.Context(), model.CandidateItem{
			ExternalID: req.Item.ExternalID,
			Title:      req.Item.Title,
			Year:       req.Item.Year,
			ImageURL:   req.Item.ImageURL,
			Tags:       req.Item.Tags,
		})
		if err != nil {
			http_common.Fail(ctx, c.logger, "failed to store item", err)
			return
		}
		itemID = item.ItemID
	}

	result, err := c.uc.RecordSwipe(ctx.Request.Context(), sessionID, participantID, itemID, model.Decision(req.Decision))
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to record swipe", err)
		return
	}

	ctx.JSON(http.StatusOK, SwipeResponseDTO{ItemID: itemID, SwipeResult: result})
}

// @Summary Отмена последней реакции
// @Tags Swipes
// @Produce json
// @Param session_id path string true "ID сессии"
// @Success 200 {object} UndoResponseDTO "Результат отмены"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 503 {object} http_common.ErrorResponse "Хранилище недоступно"
// @Security UserToken
// @Router /sessions/{session_id}/undo [post]
func (c *Controller) undo(ctx *gin.Context) {
	sessionID, ok := http_common.SessionID(ctx)
	if !ok {
		return
	}
	participantID, ok := http_common.RequireParticipant(ctx)
	if !ok {
		return
	}

	itemID, undone, err := c.uc.Undo(ctx.Request.Context(), sessionID, participantID)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to undo", err)
		return
	}
	ctx.JSON(http.StatusOK, UndoResponseDTO{Undone: undone, ItemID: itemID})
}

// @Summary Совпадения сессии
// @Description Фильмы, которые понравились как минимум двум участникам, по названию
// @Tags Swipes
// @Produce json
// @Param session_id path string true "ID сессии"
// @Success 200 {object} MatchesResponseDTO "Совпадения"
// @Failure 403 {object} http_common.ErrorResponse "Не участник"
// @Failure 404 {object} http_common.ErrorResponse "Сессия не найдена"
// @Security UserToken
// @Router /sessions/{session_id}/matches [get]
func (c *Controller) matches(ctx *gin.Context) {
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

	matches, err := c.uc.Matches(ctx.Request.Context(), sessionID)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to list matches", err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	ctx.JSON(http.StatusOK, MatchesResponseDTO{Matches: matches})
}

func parseCount(ctx *gin.Context) (int, bool) {
	raw := ctx.Query("count")
	if raw == "" {
		return defaultCount, true
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count <= 0 {
		http_common.BadRequest(ctx, "count must be a positive integer")
		return 0, false
	}
	return min(count, maxCount), true
}
