package infra_tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/humanbelnik/kinomatch/internal/config"
	"github.com/humanbelnik/kinomatch/internal/model"
	usecase_feed "github.com/humanbelnik/kinomatch/internal/usecase/feed"
	usecase_movie "github.com/humanbelnik/kinomatch/internal/usecase/movie"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TMDBInfraUnitSuite struct {
	suite.Suite
}

func newClient(t provider.T, handler http.HandlerFunc) *HTTPClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.TMDB{
		APIKey:       "secret",
		BaseURL:      srv.URL,
		ImageBaseURL: "https://img.test/w500",
		Language:     "pt-BR",
		Timeout:      time.Second,
	}, nil)
}

func (s *TMDBInfraUnitSuite) TestFetchPage(t provider.T) {
	t.Parallel()

	t.Run("Should translate filters into discover parameters", func(t provider.T) {
		var got map[string]string
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = map[string]string{}
			for k := range r.URL.Query() {
				got[k] = r.URL.Query().Get(k)
			}
			assert.Equal(t, "/discover/movie", r.URL.Path)
			_, _ = w.Write([]byte(`{"page":2,"total_pages":5,"results":[]}`))
		})

		filters := model.FilterSpec{Genres: []int{18, 35}, YearMin: 2000, YearMax: 2010, RatingMin: 7.5, Language: "en", SortBy: "vote_average.desc"}
		_, err := client.FetchPage(context.Background(), 2, filters)

		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"api_key":                  "secret",
			"page":                     "2",
			"include_adult":            "false",
			"include_video":            "false",
			"language":                 "pt-BR",
			"sort_by":                  "vote_average.desc",
			"with_genres":              "18,35",
			"primary_release_date.gte": "2000-01-01",
			"primary_release_date.lte": "2010-12-31",
			"vote_average.gte":         "7.5",
			"vote_count.gte":           "50",
			"with_original_language":   "en",
		}, got)
	})

	t.Run("Should map results and skip movies without posters", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"page":1,"total_pages":3,"results":[
				{"id":603,"title":"The Matrix","release_date":"1999-03-30","poster_path":"/m.jpg","genre_ids":[28,878]},
				{"id":604,"title":"No Poster","release_date":"2003-05-15","poster_path":null},
				{"id":605,"name":"Named Only","release_date":"","poster_path":"/n.jpg"}
			]}`))
		})

		page, err := client.FetchPage(context.Background(), 1, model.FilterSpec{})

		require.NoError(t, err)
		assert.False(t, page.IsLast)
		require.Len(t, page.Items, 2)
		assert.Equal(t, model.CandidateItem{
			ExternalID: 603,
			Title:      "The Matrix",
			Year:       1999,
			ImageURL:   "https://img.test/w500/m.jpg",
			Tags:       []int{28, 878},
		}, page.Items[0])
		assert.Equal(t, "Named Only", page.Items[1].Title)
		assert.Zero(t, page.Items[1].Year)
	})

	t.Run("Should mark the final page as last", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"page":3,"total_pages":3,"results":[{"id":1,"title":"x","poster_path":"/x.jpg"}]}`))
		})

		page, err := client.FetchPage(context.Background(), 3, model.FilterSpec{})

		require.NoError(t, err)
		assert.True(t, page.IsLast)
	})

	t.Run("Should not end the feed on a page without usable movies", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte(`{"page":1,"total_pages":3,"results":[{"id":1,"title":"a","poster_path":null},{"id":2,"title":"b","poster_path":""}]}`))
			case "2":
				_, _ = w.Write([]byte(`{"page":2,"total_pages":3,"results":[{"id":3,"title":"c","poster_path":"/c.jpg"}]}`))
			default:
				_, _ = w.Write([]byte(`{"page":3,"total_pages":3,"results":[{"id":4,"title":"d","poster_path":"/d.jpg"}]}`))
			}
		})

		first, err := client.FetchPage(context.Background(), 1, model.FilterSpec{})
		require.NoError(t, err)
		assert.Empty(t, first.Items)
		assert.False(t, first.IsLast)

		batch, err := usecase_feed.New(client).NextPage(context.Background(), model.FilterSpec{}, 1, usecase_feed.Seen{})

		require.NoError(t, err)
		require.Len(t, batch.Items, 2)
		assert.Equal(t, int64(3), batch.Items[0].ExternalID)
		assert.Equal(t, int64(4), batch.Items[1].ExternalID)
		assert.True(t, batch.IsLast)
		assert.Equal(t, 4, batch.NextPage)
	})

	t.Run("Should report upstream failures as feed unavailable", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.FetchPage(context.Background(), 1, model.FilterSpec{})

		assert.ErrorIs(t, err, usecase_feed.ErrFeedUnavailable)
	})
}

func (s *TMDBInfraUnitSuite) TestDetails(t provider.T) {
	t.Parallel()

	t.Run("Should combine details, trailer and certification", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/movie/603":
				_, _ = w.Write([]byte(`{"vote_average":8.2,"runtime":136,"overview":"Neo.","genres":[{"id":28,"name":"Ação"}]}`))
			case "/movie/603/videos":
				_, _ = w.Write([]byte(`{"results":[
					{"site":"Vimeo","type":"Trailer","key":"v"},
					{"site":"YouTube","type":"Teaser","key":"t"},
					{"site":"YouTube","type":"Trailer","key":"yt"}
				]}`))
			case "/movie/603/release_dates":
				_, _ = w.Write([]byte(`{"results":[
					{"iso_3166_1":"US","release_dates":[{"certification":"R"}]},
					{"iso_3166_1":"BR","release_dates":[{"certification":""},{"certification":"14"}]}
				]}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		})

		d, err := client.Details(context.Background(), 603)

		require.NoError(t, err)
		assert.Equal(t, int64(603), d.ExternalID)
		require.NotNil(t, d.VoteAverage)
		assert.InDelta(t, 8.2, *d.VoteAverage, 1e-9)
		require.NotNil(t, d.Runtime)
		assert.Equal(t, 136, *d.Runtime)
		assert.Equal(t, &model.Trailer{Site: "YouTube", Key: "yt"}, d.Trailer)
		assert.Equal(t, "14", d.AgeRating)
	})

	t.Run("Should fall back to the US rating and tolerate missing extras", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/movie/13":
				_, _ = w.Write([]byte(`{"overview":"Run."}`))
			case "/movie/13/release_dates":
				_, _ = w.Write([]byte(`{"results":[{"iso_3166_1":"US","release_dates":[{"certification":"PG-13"}]}]}`))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		})

		d, err := client.Details(context.Background(), 13)

		require.NoError(t, err)
		assert.Nil(t, d.Trailer)
		assert.Nil(t, d.VoteAverage)
		assert.Equal(t, "PG-13", d.AgeRating)
		assert.Equal(t, []model.Genre{}, d.Genres)
	})

	t.Run("Should map 404 to ErrMovieNotFound", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Details(context.Background(), 1)

		assert.ErrorIs(t, err, usecase_movie.ErrMovieNotFound)
	})

	t.Run("Should map other failures to ErrDetailsUnavailable", func(t provider.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Details(context.Background(), 1)

		assert.ErrorIs(t, err, usecase_movie.ErrDetailsUnavailable)
	})
}

func TestTMDBInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(TMDBInfraUnitSuite))
}
