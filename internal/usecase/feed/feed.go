package usecase_feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/humanbelnik/kinomatch/internal/model"
)

var (
	ErrFeedUnavailable = errors.New("feed unavailable")
)

//go:generate mockery --name=Source --output=./mocks/feed/source --filename=source.go
type Source interface {
	FetchPage(ctx context.Context, page int, filters model.FilterSpec) (model.FeedPage, error)
}

const (
	defaultBatchSize   = 20
	defaultMaxPages    = 3
	defaultResumePages = 30
	defaultAttempts    = 3
	defaultRetryDelay  = 200 * time.Millisecond
)

type Adapter struct {
	source Source
	logger *slog.Logger

	batchSize   int
	maxPages    int
	resumePages int
	attempts    int
	retryDelay  time.Duration
}

type Option func(*Adapter)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithBatchSize sets how many new items NextPage tries to collect.
func WithBatchSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.batchSize = n
		}
	}
}

// WithMaxPages caps pages read by a single NextPage call.
func WithMaxPages(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxPages = n
		}
	}
}

// WithResumePages caps pages read while rebuilding a window.
func WithResumePages(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.resumePages = n
		}
	}
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(a *Adapter) {
		if attempts > 0 {
			a.attempts = attempts
		}
		if delay > 0 {
			a.retryDelay = delay
		}
	}
}

func New(source Source, opts ...Option) *Adapter {
	a := &Adapter{
		source:      source,
		logger:      slog.Default(),
		batchSize:   defaultBatchSize,
		maxPages:    defaultMaxPages,
		resumePages: defaultResumePages,
		attempts:    defaultAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Seen holds external ids already handed out to one candidate window.
type Seen map[int64]struct{}

// Add reports whether id was new.
func (s Seen) Add(id int64) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

type Batch struct {
	Items    []model.CandidateItem
	NextPage int
	IsLast   bool
}

// NextPage reads pages starting at page, dropping items present in seen,
// until a full batch of new items is collected, the source runs out, or the
// per-call page cap is reached. Items it returns are added to seen.
func (a *Adapter) NextPage(ctx context.Context, filters model.FilterSpec, page int, seen Seen) (Batch, error) {
	if page < 1 {
		page = 1
	}
	batch := Batch{NextPage: page}

	for read := 0; read < a.maxPages; read++ {
		p, err := a.fetch(ctx, filters, batch.NextPage)
		if err != nil {
			if len(batch.Items) > 0 {
				a.logger.Warn("feed page failed, returning partial batch",
					slog.Int("page", batch.NextPage),
					slog.Int("items", len(batch.Items)),
					slog.String("error", err.Error()))
				return batch, nil
			}
			return batch, err
		}
		batch.NextPage++

		for _, item := range p.Items {
			if seen.Add(item.ExternalID) {
				batch.Items = append(batch.Items, item)
			}
		}

		// Only the source knows where the data ends. A page can come back
		// empty after its own filtering and still have successors.
		if p.IsLast {
			batch.IsLast = true
			break
		}
		if len(batch.Items) >= a.batchSize {
			break
		}
	}

	return batch, nil
}

func (a *Adapter) fetch(ctx context.Context, filters model.FilterSpec, page int) (model.FeedPage, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = a.retryDelay

	p, err := backoff.Retry(ctx, func() (model.FeedPage, error) {
		p, err := a.source.FetchPage(ctx, page, filters)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrFeedUnavailable) {
			a.logger.Debug("feed fetch failed, retrying", slog.Int("page", page), slog.String("error", err.Error()))
			return model.FeedPage{}, err
		}
		return model.FeedPage{}, backoff.Permanent(err)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(a.attempts)),
	)
	if err != nil {
		if errors.Is(err, ErrFeedUnavailable) {
			return model.FeedPage{}, err
		}
		return model.FeedPage{}, errors.Join(ErrFeedUnavailable, err)
	}
	return p, nil
}
