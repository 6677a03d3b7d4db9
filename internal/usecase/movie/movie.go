package usecase_movie

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/humanbelnik/kinomatch/internal/model"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrMovieNotFound      = errors.New("movie not found")
	ErrDetailsUnavailable = errors.New("movie details unavailable")
)

const (
	DefaultMemoSize = 1024
	DefaultTTL      = 30 * time.Minute
)

//go:generate mockery --name=Source --output=./mocks/movie/source --filename=source.go
type Source interface {
	Details(ctx context.Context, externalID int64) (model.MovieDetails, error)
}

// Cache is shared between instances. A miss is (zero, false, nil).
//
//go:generate mockery --name=Cache --output=./mocks/movie/cache --filename=cache.go
type Cache interface {
	Get(ctx context.Context, externalID int64) (model.MovieDetails, bool, error)
	Set(ctx context.Context, details model.MovieDetails, ttl time.Duration) error
}

type Usecase struct {
	source Source
	cache  Cache
	memo   *expirable.LRU[int64, model.MovieDetails]
	group  singleflight.Group
	ttl    time.Duration
	size   int
	logger *slog.Logger
}

type Option func(*Usecase)

func WithCache(c Cache) Option {
	return func(u *Usecase) { u.cache = c }
}

func WithMemo(size int, ttl time.Duration) Option {
	return func(u *Usecase) {
		if size > 0 {
			u.size = size
		}
		if ttl > 0 {
			u.ttl = ttl
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(u *Usecase) { u.logger = l }
}

func New(source Source, opts ...Option) *Usecase {
	u := &Usecase{
		source: source,
		ttl:    DefaultTTL,
		size:   DefaultMemoSize,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.memo = expirable.NewLRU[int64, model.MovieDetails](u.size, nil, u.ttl)
	return u
}

// Details looks the movie up in the local memo, then the shared cache, then
// the source. Concurrent lookups of one id share a single source call.
func (u *Usecase) Details(ctx context.Context, externalID int64) (model.MovieDetails, error) {
	if externalID <= 0 {
		return model.MovieDetails{}, ErrInvalidInput
	}
	if d, ok := u.memo.Get(externalID); ok {
		return d, nil
	}

	v, err, _ := u.group.Do(strconv.FormatInt(externalID, 10), func() (any, error) {
		return u.load(ctx, externalID)
	})
	if err != nil {
		return model.MovieDetails{}, err
	}
	return v.(model.MovieDetails), nil
}

func (u *Usecase) load(ctx context.Context, externalID int64) (model.MovieDetails, error) {
	if u.cache != nil {
		d, ok, err := u.cache.Get(ctx, externalID)
		if err != nil {
			u.logger.Warn("details cache read failed", slog.Int64("external_id", externalID), slog.String("error", err.Error()))
		} else if ok {
			u.memo.Add(externalID, d)
			return d, nil
		}
	}

	d, err := u.source.Details(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return model.MovieDetails{}, ErrMovieNotFound
		}
		if errors.Is(err, ErrDetailsUnavailable) {
			return model.MovieDetails{}, err
		}
		return model.MovieDetails{}, errors.Join(ErrDetailsUnavailable, err)
	}
	d.ExternalID = externalID

	u.memo.Add(externalID, d)
	if u.cache != nil {
		if err := u.cache.Set(ctx, d, u.ttl); err != nil {
			u.logger.Warn("details cache write failed", slog.Int64("external_id", externalID), slog.String("error", err.Error()))
		}
	}
	return d, nil
}
