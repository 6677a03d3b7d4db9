package usecase_movie

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/humanbelnik/kinomatch/internal/model"
	cache_mocks "github.com/humanbelnik/kinomatch/internal/usecase/movie/mocks/movie/cache"
	source_mocks "github.com/humanbelnik/kinomatch/internal/usecase/movie/mocks/movie/source"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UsecaseMovieUnitSuite struct {
	suite.Suite
}

type resources struct {
	usecase *Usecase
	source  *source_mocks.Source
	cache   *cache_mocks.Cache
	ctx     context.Context
}

func initResources(t provider.T, withCache bool) *resources {
	source := source_mocks.NewSource(t)
	r := &resources{source: source, ctx: context.Background()}

	opts := []Option{WithMemo(16, time.Minute)}
	if withCache {
		r.cache = cache_mocks.NewCache(t)
		opts = append(opts, WithCache(r.cache))
	}
	r.usecase = New(source, opts...)
	return r
}

func matrix() model.MovieDetails {
	rating := 8.2
	runtime := 136
	return model.MovieDetails{
		VoteAverage: &rating,
		Runtime:     &runtime,
		Overview:    "A hacker learns the truth.",
		AgeRating:   "14",
		Genres:      []model.Genre{{ID: 28, Name: "Ação"}},
		Trailer:     &model.Trailer{Site: "YouTube", Key: "vKQi3bBA1y8"},
	}
}

func (s *UsecaseMovieUnitSuite) TestDetails(t provider.T) {
	t.Parallel()

	t.Run("Should reject non-positive ids", func(t provider.T) {
		r := initResources(t, false)

		_, err := r.usecase.Details(r.ctx, 0)

		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Should memoize source results", func(t provider.T) {
		r := initResources(t, false)
		r.source.On("Details", mock.Anything, int64(603)).Return(matrix(), nil).Once()

		first, err := r.usecase.Details(r.ctx, 603)
		assert.NoError(t, err)
		second, err := r.usecase.Details(r.ctx, 603)
		assert.NoError(t, err)

		assert.Equal(t, int64(603), first.ExternalID)
		assert.Equal(t, first, second)
	})

	t.Run("Should serve shared cache hits without calling the source", func(t provider.T) {
		r := initResources(t, true)
		cached := matrix()
		cached.ExternalID = 603
		r.cache.On("Get", mock.Anything, int64(603)).Return(cached, true, nil).Once()

		got, err := r.usecase.Details(r.ctx, 603)

		assert.NoError(t, err)
		assert.Equal(t, cached, got)
	})

	t.Run("Should fill the shared cache on a miss", func(t provider.T) {
		r := initResources(t, true)
		r.cache.On("Get", mock.Anything, int64(603)).Return(model.MovieDetails{}, false, nil).Once()
		r.source.On("Details", mock.Anything, int64(603)).Return(matrix(), nil).Once()
		r.cache.On("Set", mock.Anything, mock.MatchedBy(func(d model.MovieDetails) bool {
			return d.ExternalID == 603
		}), time.Minute).Return(nil).Once()

		_, err := r.usecase.Details(r.ctx, 603)

		assert.NoError(t, err)
	})

	t.Run("Should fall through a broken shared cache", func(t provider.T) {
		r := initResources(t, true)
		r.cache.On("Get", mock.Anything, int64(603)).Return(model.MovieDetails{}, false, errors.New("redis down")).Once()
		r.source.On("Details", mock.Anything, int64(603)).Return(matrix(), nil).Once()
		r.cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

		got, err := r.usecase.Details(r.ctx, 603)

		assert.NoError(t, err)
		assert.Equal(t, "14", got.AgeRating)
	})

	t.Run("Should pass not found through", func(t provider.T) {
		r := initResources(t, false)
		r.source.On("Details", mock.Anything, int64(1)).Return(model.MovieDetails{}, ErrMovieNotFound).Once()

		_, err := r.usecase.Details(r.ctx, 1)

		assert.ErrorIs(t, err, ErrMovieNotFound)
	})

	t.Run("Should wrap other source failures", func(t provider.T) {
		r := initResources(t, false)
		r.source.On("Details", mock.Anything, int64(1)).Return(model.MovieDetails{}, errors.New("boom")).Twice()

		_, err := r.usecase.Details(r.ctx, 1)
		assert.ErrorIs(t, err, ErrDetailsUnavailable)

		_, err = r.usecase.Details(r.ctx, 1)
		assert.ErrorIs(t, err, ErrDetailsUnavailable)
	})

	t.Run("Should share one source call between concurrent lookups", func(t provider.T) {
		r := initResources(t, false)
		release := make(chan time.Time)
		r.source.On("Details", mock.Anything, int64(603)).Return(matrix(), nil).WaitUntil(release).Once()

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.usecase.Details(r.ctx, 603)
				assert.NoError(t, err)
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()
	})
}

func TestUsecaseMovieUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseMovieUnitSuite))
}
