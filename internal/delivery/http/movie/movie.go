package http_movie

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	http_common "github.com/humanbelnik/kinomatch/internal/delivery/http/common"
	usecase_movie "github.com/humanbelnik/kinomatch/internal/usecase/movie"
)

type Controller struct {
	uc     *usecase_movie.Usecase
	logger *slog.Logger
}

type ControllerOption func(*Controller)

func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func New(uc *usecase_movie.Usecase, opts ...ControllerOption) *Controller {
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
	router.GET("/movies/:external_id/details", c.details)
}

// @Summary Подробности о фильме
// @Description Рейтинг, длительность, описание, возрастной рейтинг (BR, затем US) и трейлер YouTube
// @Tags Movies
// @Produce json
// @Param external_id path int true "ID фильма в TMDB"
// @Success 200 {object} model.MovieDetails "Подробности"
// @Failure 400 {object} http_common.ErrorResponse "Некорректный ID"
// @Failure 404 {object} http_common.ErrorResponse "Фильм не найден"
// @Failure 502 {object} http_common.ErrorResponse "TMDB недоступен"
// @Router /movies/{external_id}/details [get]
func (c *Controller) details(ctx *gin.Context) {
	externalID, err := strconv.ParseInt(ctx.Param("external_id"), 10, 64)
	if err != nil {
		http_common.BadRequest(ctx, "external_id must be an integer")
		return
	}

	details, err := c.uc.Details(ctx.Request.Context(), externalID)
	if err != nil {
		http_common.Fail(ctx, c.logger, "failed to load movie details", err)
		return
	}

	ctx.Header("Cache-Control", "public, max-age=600")
	ctx.JSON(http.StatusOK, details)
}
