package infra_tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/humanbelnik/kinomatch/internal/config"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
	usecase_movie "github.com/humanbelnik/kinomatch/internal/usecase/movie"
)

const (
	minVoteCount = "50"
	// TMDB refuses pages past 500.
	maxPage = 500
)

// certificationCountries are tried in order for the age rating.
var certificationCountries = []string{"BR", "US"}

type HTTPClient struct {
	apiKey     string
	baseURL    string
	imageURL   string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg config.TMDB, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		imageURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		language: cfg.Language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type discoverResponse struct {
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Results    []discoverMovie `json:"results"`
}

type discoverMovie struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
	GenreIDs    []int  `json:"genre_ids"`
}

// FetchPage reads one discover page. Movies without a poster are skipped.
func (c *HTTPClient) FetchPage(ctx context.Context, page int, filters model.FilterSpec) (model.FeedPage, error) {
	if page < 1 {
		page = 1
	}

	var resp discoverResponse
	if err := c.get(ctx, "/discover/movie", discoverQuery(page, filters, c.language), &resp); err != nil {
		return model.FeedPage{}, fmt.Errorf("%w: %w", usecase_feed.ErrFeedUnavailable, err)
	}

	items := make([]model.CandidateItem, 0, len(resp.Results))
	for _, m := range resp.Results {
		if m.PosterPath == "" {
			continue
		}
		title := m.Title
		if title == "" {
			title = m.Name
		}
		if m.ID <= 0 || title == model.EmptyTitle {
			continue
		}
		items = append(items, model.CandidateItem{
			ExternalID: m.ID,
			Title:      title,
			Year:       releaseYear(m.ReleaseDate),
			ImageURL:   c.imageURL + m.PosterPath,
			Tags:       m.GenreIDs,
		})
	}

	return model.FeedPage{
		Items:  items,
		Page:   page,
		IsLast: len(resp.Results) == 0 || page >= resp.TotalPages || page >= maxPage,
	}, nil
}

func discoverQuery(page int, f model.FilterSpec, language string) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("include_adult", "false")
	q.Set("include_video", "false")
	if language != "" {
		q.Set("language", language)
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = model.DefaultSortBy
	}
	q.Set("sort_by", sortBy)

	if len(f.Genres) > 0 {
		genres := make([]string, 0, len(f.Genres))
		for _, g := range f.Genres {
			genres = append(genres, strconv.Itoa(g))
		}
		q.Set("with_genres", strings.Join(genres, ","))
	}
	if f.YearMin != 0 {
		q.Set("primary_release_date.gte", fmt.Sprintf("%d-01-01", f.YearMin))
	}
	if f.YearMax != 0 {
		q.Set("primary_release_date.lte", fmt.Sprintf("%d-12-31", f.YearMax))
	}
	if f.RatingMin > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(f.RatingMin, 'f', -1, 64))
		q.Set("vote_count.gte", minVoteCount)
	}
	if f.Language != "" {
		q.Set("with_original_language", strings.ToLower(f.Language))
	}
	return q
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

type detailsResponse struct {
	VoteAverage *float64      `json:"vote_average"`
	Runtime     *int          `json:"runtime"`
	Overview    string        `json:"overview"`
	Genres      []model.Genre `json:"genres"`
}

type videosResponse struct {
	Results []struct {
		Site string `json:"site"`
		Type string `json:"type"`
		Key  string `json:"key"`
	} `json:"results"`
}

type releaseDatesResponse struct {
	Results []struct {
		Country      string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

// Details combines the movie record with its first YouTube trailer and age
// rating. Only the movie record is required; the other two degrade to empty.
func (c *HTTPClient) Details(ctx context.Context, externalID int64) (model.MovieDetails, error) {
	base := "/movie/" + strconv.FormatInt(externalID, 10)
	lang := url.Values{}
	if c.language != "" {
		lang.Set("language", c.language)
	}

	var details detailsResponse
	if err := c.get(ctx, base, lang, &details); err != nil {
		if statusOf(err) == http.StatusNotFound {
			return model.MovieDetails{}, usecase_movie.ErrMovieNotFound
		}
		return model.MovieDetails{}, fmt.Errorf("%w: %w", usecase_movie.ErrDetailsUnavailable, err)
	}

	out := model.MovieDetails{
		ExternalID:  externalID,
		VoteAverage: details.VoteAverage,
		Runtime:     details.Runtime,
		Overview:    details.Overview,
		Genres:      details.Genres,
	}
	if out.Genres == nil {
		out.Genres = []model.Genre{}
	}

	var videos videosResponse
	if err := c.get(ctx, base+"/videos", lang, &videos); err != nil {
		c.logger.Warn("tmdb videos failed", slog.Int64("external_id", externalID), slog.String("error", err.Error()))
	}
	for _, v := range videos.Results {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			out.Trailer = &model.Trailer{Site: v.Site, Key: v.Key}
			break
		}
	}

	var releases releaseDatesResponse
	if err := c.get(ctx, base+"/release_dates", url.Values{}, &releases); err != nil {
		c.logger.Warn("tmdb release dates failed", slog.Int64("external_id", externalID), slog.String("error", err.Error()))
	}
	out.AgeRating = certification(releases)

	return out, nil
}

func certification(r releaseDatesResponse) string {
	for _, country := range certificationCountries {
		for _, entry := range r.Results {
			if entry.Country != country {
				continue
			}
			for _, d := range entry.ReleaseDates {
				if d.Certification != "" {
					return d.Certification
				}
			}
		}
	}
	return ""
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("tmdb returned status %d: %s", e.status, e.body)
}

func statusOf(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tmdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{status: resp.StatusCode, body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
