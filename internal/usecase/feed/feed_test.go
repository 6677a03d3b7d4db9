package usecase_feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/humanbelnik/kinomatch/internal/model"
	source_mocks "github.com/humanbelnik/kinomatch/internal/usecase/feed/mocks/feed/source"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type UsecaseFeedUnitSuite struct {
	suite.Suite

	ctx     context.Context
	filters model.FilterSpec
}

func (s *UsecaseFeedUnitSuite) BeforeEach(t provider.T) {
	s.ctx = context.Background()
	s.filters = model.DefaultFilterSpec(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).Normalize()
}

func item(id int64) model.CandidateItem {
	return model.CandidateItem{ExternalID: id, Title: "movie", ImageURL: "/poster.jpg"}
}

func page(last bool, ids ...int64) model.FeedPage {
	p := model.FeedPage{IsLast: last}
	for _, id := range ids {
		p.Items = append(p.Items, item(id))
	}
	return p
}

func externalIDs(items []model.CandidateItem) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ExternalID)
	}
	return out
}

// scripted serves pages[n-1] for page n and an empty last page past the end.
func scripted(pages ...model.FeedPage) func(context.Context, int, model.FilterSpec) (model.FeedPage, error) {
	return func(_ context.Context, n int, _ model.FilterSpec) (model.FeedPage, error) {
		if n < 1 || n > len(pages) {
			return model.FeedPage{Page: n, IsLast: true}, nil
		}
		p := pages[n-1]
		p.Page = n
		return p, nil
	}
}

func fastRetry() Option {
	return WithRetry(3, time.Millisecond)
}

func (s *UsecaseFeedUnitSuite) TestNextPage(t provider.T) {
	t.Run("Should drop items already seen across pages", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(page(false, 1, 2, 3), nil).Once()
		source.On("FetchPage", mock.Anything, 2, s.filters).Return(page(false, 3, 4, 5), nil).Once()
		adapter := New(source, WithBatchSize(5), WithMaxPages(2), fastRetry())

		seen := Seen{1: {}}
		batch, err := adapter.NextPage(s.ctx, s.filters, 1, seen)

		assert.NoError(t, err)
		assert.Equal(t, []int64{2, 3, 4, 5}, externalIDs(batch.Items))
		assert.Equal(t, 3, batch.NextPage)
		assert.False(t, batch.IsLast)
		assert.Len(t, seen, 5)
	})

	t.Run("Should stop once a full batch is collected", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(page(false, 1, 2, 3), nil).Once()
		adapter := New(source, WithBatchSize(2), fastRetry())

		batch, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, externalIDs(batch.Items))
		assert.Equal(t, 2, batch.NextPage)
	})

	t.Run("Should mark the batch last when the source is exhausted", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 4, s.filters).Return(page(true, 9), nil).Once()
		adapter := New(source, fastRetry())

		batch, err := adapter.NextPage(s.ctx, s.filters, 4, make(Seen))

		assert.NoError(t, err)
		assert.True(t, batch.IsLast)
		assert.Equal(t, []int64{9}, externalIDs(batch.Items))
	})

	t.Run("Should read past a page left empty by the source's own filtering", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(
			scripted(page(false), page(false, 1, 2), page(true, 3)), nil).Maybe()
		adapter := New(source, WithBatchSize(2), WithMaxPages(3), fastRetry())

		batch, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, externalIDs(batch.Items))
		assert.False(t, batch.IsLast)
		assert.Equal(t, 3, batch.NextPage)
	})

	t.Run("Should keep a window open across an empty page", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(
			scripted(page(false, 1), page(false), page(true, 2)), nil).Maybe()
		adapter := New(source, WithBatchSize(1), WithMaxPages(1), fastRetry())

		w := NewWindow(s.filters)
		assert.NoError(t, adapter.Fill(s.ctx, w, 1))
		assert.False(t, w.Exhausted)
		assert.NoError(t, adapter.Fill(s.ctx, w, 2))

		assert.Equal(t, []int64{1, 2}, externalIDs(w.Items))
		assert.True(t, w.Exhausted)
	})

	t.Run("Should retry transient failures", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(model.FeedPage{}, ErrFeedUnavailable).Once()
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(page(true, 7), nil).Once()
		adapter := New(source, fastRetry())

		batch, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.NoError(t, err)
		assert.Equal(t, []int64{7}, externalIDs(batch.Items))
	})

	t.Run("Should give up after the configured attempts", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(model.FeedPage{}, ErrFeedUnavailable).Times(3)
		adapter := New(source, fastRetry())

		_, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.ErrorIs(t, err, ErrFeedUnavailable)
	})

	t.Run("Should not retry permanent failures", func(t provider.T) {
		source := source_mocks.NewSource(t)
		permanent := errors.New("bad request")
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(model.FeedPage{}, permanent).Once()
		adapter := New(source, fastRetry())

		_, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.ErrorIs(t, err, ErrFeedUnavailable)
		assert.ErrorContains(t, err, permanent.Error())
	})

	t.Run("Should return partial batch when a later page fails", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(page(false, 1), nil).Once()
		source.On("FetchPage", mock.Anything, 2, s.filters).Return(model.FeedPage{}, ErrFeedUnavailable).Times(3)
		adapter := New(source, WithBatchSize(5), fastRetry())

		batch, err := adapter.NextPage(s.ctx, s.filters, 1, make(Seen))

		assert.NoError(t, err)
		assert.Equal(t, []int64{1}, externalIDs(batch.Items))
		assert.Equal(t, 2, batch.NextPage)
	})
}

func (s *UsecaseFeedUnitSuite) TestResume(t provider.T) {
	pages := []model.FeedPage{
		page(false, 10, 11, 12),
		page(false, 12, 13, 10),
		page(false, 14, 15),
		page(true, 15, 16),
	}

	t.Run("Should land on the same candidate as a sequential walk", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(scripted(pages...), nil).Maybe()
		adapter := New(source, WithBatchSize(2), WithMaxPages(1), fastRetry())

		walk := NewWindow(s.filters)
		assert.NoError(t, adapter.Fill(s.ctx, walk, 100))
		assert.Equal(t, []int64{10, 11, 12, 13, 14, 15, 16}, externalIDs(walk.Items))

		for index := 0; index < len(walk.Items); index++ {
			w, err := adapter.Resume(s.ctx, s.filters, index)
			assert.NoError(t, err)

			upcoming := w.Upcoming(1)
			assert.Len(t, upcoming, 1)
			assert.Equal(t, walk.Items[index].ExternalID, upcoming[0].ExternalID)
			assert.Equal(t, s.filters.Signature(), w.Signature)
		}
	})

	t.Run("Should clamp index past the end of an exhausted source", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(scripted(pages...), nil).Maybe()
		adapter := New(source, fastRetry())

		w, err := adapter.Resume(s.ctx, s.filters, 50)

		assert.NoError(t, err)
		assert.True(t, w.Exhausted)
		assert.Equal(t, len(w.Items), w.Index)
		assert.Empty(t, w.Upcoming(1))
	})

	t.Run("Should stop after the resume page cap", func(t provider.T) {
		source := source_mocks.NewSource(t)
		calls := 0
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(
			func(_ context.Context, n int, _ model.FilterSpec) (model.FeedPage, error) {
				calls++
				return page(false, int64(n)), nil
			}, nil).Maybe()
		adapter := New(source, WithBatchSize(1), WithMaxPages(1), WithResumePages(4), fastRetry())

		w, err := adapter.Resume(s.ctx, s.filters, 100)

		assert.NoError(t, err)
		assert.Equal(t, 4, calls)
		assert.Len(t, w.Items, 4)
		assert.False(t, w.Exhausted)
	})

	t.Run("Should propagate feed failures", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, 1, s.filters).Return(model.FeedPage{}, ErrFeedUnavailable).Times(3)
		adapter := New(source, fastRetry())

		w, err := adapter.Resume(s.ctx, s.filters, 0)

		assert.ErrorIs(t, err, ErrFeedUnavailable)
		assert.Nil(t, w)
	})
}

func (s *UsecaseFeedUnitSuite) TestWindow(t provider.T) {
	t.Run("Should return upcoming items from the cursor", func(t provider.T) {
		w := NewWindow(s.filters)
		w.Items = []model.CandidateItem{item(1), item(2), item(3)}
		w.Seek(1)

		assert.Equal(t, []int64{2, 3}, externalIDs(w.Upcoming(5)))
		assert.Equal(t, []int64{2}, externalIDs(w.Upcoming(1)))
	})

	t.Run("Should never seek below zero", func(t provider.T) {
		w := NewWindow(s.filters)
		w.Items = []model.CandidateItem{item(1)}

		w.Seek(-3)
		assert.Equal(t, 0, w.Index)
		w.Seek(9)
		assert.Equal(t, 9, w.Index)
		assert.Empty(t, w.Upcoming(3))
	})

	t.Run("Should catch up a window seeked past its items", func(t provider.T) {
		source := source_mocks.NewSource(t)
		source.On("FetchPage", mock.Anything, mock.Anything, s.filters).Return(
			scripted(page(false, 1, 2), page(false, 3, 4), page(false, 5, 6), page(true, 7)), nil).Maybe()
		adapter := New(source, WithBatchSize(2), WithMaxPages(1), fastRetry())

		w := NewWindow(s.filters)
		assert.NoError(t, adapter.Fill(s.ctx, w, 1))
		w.Seek(3)
		assert.NoError(t, adapter.Fill(s.ctx, w, 2))

		assert.Equal(t, []int64{4, 5}, externalIDs(w.Upcoming(2)))
	})
}

func TestUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(UsecaseFeedUnitSuite))
}
