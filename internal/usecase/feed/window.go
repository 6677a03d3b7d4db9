package usecase_feed

import (
	"context"
	"maps"
	"slices"

	"github.com/humanbelnik/kinomatch/internal/model"
)

// Window is a participant's reconstructed, deduplicated candidate sequence
// for one filter signature. Index points at the current candidate.
type Window struct {
	Filters   model.FilterSpec
	Signature string
	Items     []model.CandidateItem
	Index     int
	NextPage  int
	Exhausted bool

	seen Seen
}

func NewWindow(filters model.FilterSpec) *Window {
	return &Window{
		Filters:   filters,
		Signature: filters.Signature(),
		NextPage:  1,
		seen:      make(Seen),
	}
}

// Clone returns a copy sharing no mutable state with w.
func (w *Window) Clone() *Window {
	c := *w
	c.Filters.Genres = slices.Clone(w.Filters.Genres)
	c.Items = slices.Clone(w.Items)
	c.seen = maps.Clone(w.seen)
	return &c
}

// Upcoming returns at most count items starting at Index.
func (w *Window) Upcoming(count int) []model.CandidateItem {
	if w.Index >= len(w.Items) || count <= 0 {
		return []model.CandidateItem{}
	}
	end := min(w.Index+count, len(w.Items))
	out := make([]model.CandidateItem, end-w.Index)
	copy(out, w.Items[w.Index:end])
	return out
}

// Seek moves Index to i. The index may run past the loaded items; Fill
// catches the window up.
func (w *Window) Seek(i int) {
	w.Index = max(0, i)
}

func (w *Window) remaining() int {
	return len(w.Items) - w.Index
}

func (w *Window) extend(b Batch) {
	w.Items = append(w.Items, b.Items...)
	w.NextPage = b.NextPage
	w.Exhausted = b.IsLast
}

// Resume rebuilds the window for filters and positions it at index. Pages are
// pulled until the window holds more than index items or the source is
// exhausted, so the participant lands on the same candidate without the
// sequence itself being stored.
func (a *Adapter) Resume(ctx context.Context, filters model.FilterSpec, index int) (*Window, error) {
	w := NewWindow(filters)
	if index < 0 {
		index = 0
	}

	read := 0
	for len(w.Items) <= index && !w.Exhausted && read < a.resumePages {
		b, err := a.NextPage(ctx, w.Filters, w.NextPage, w.seen)
		if err != nil {
			return nil, err
		}
		read += b.NextPage - w.NextPage
		w.extend(b)
	}

	w.Index = min(index, len(w.Items))
	return w, nil
}

// Fill extends w until count candidates are available from Index on, or
// the source is exhausted.
func (a *Adapter) Fill(ctx context.Context, w *Window, count int) error {
	read := 0
	for w.remaining() < count && !w.Exhausted && read < a.resumePages {
		b, err := a.NextPage(ctx, w.Filters, w.NextPage, w.seen)
		if err != nil {
			return err
		}
		read += b.NextPage - w.NextPage
		w.extend(b)
	}
	return nil
}
