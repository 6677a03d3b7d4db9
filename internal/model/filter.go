package model

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSortBy  = "popularity.desc"
	DefaultYearMin = 1990
	MinYear        = 1900
	MaxRating      = 10.0
)

var (
	ErrYearOutOfRange   = errors.New("year out of range")
	ErrYearOrder        = errors.New("year_min is greater than year_max")
	ErrRatingOutOfRange = errors.New("rating_min out of range")
	ErrBadLanguage      = errors.New("language must be a two-letter code")
	ErrBadSortBy        = errors.New("sort_by must look like field.asc or field.desc")
	ErrBadGenre         = errors.New("genre ids must be positive")
)

var (
	languageRe = regexp.MustCompile(`^[a-z]{2}$`)
	sortByRe   = regexp.MustCompile(`^[a-z_.]+\.(asc|desc)$`)
)

// FilterSpec is the active feed configuration of a session. Zero years mean
// "unset".
type FilterSpec struct {
	Genres    []int   `json:"genres"`
	YearMin   int     `json:"year_min,omitempty"`
	YearMax   int     `json:"year_max,omitempty"`
	RatingMin float64 `json:"rating_min"`
	Language  string  `json:"language"`
	SortBy    string  `json:"sort_by"`
}

func DefaultFilterSpec(now time.Time) FilterSpec {
	return FilterSpec{
		Genres:  []int{},
		YearMin: DefaultYearMin,
		YearMax: now.Year(),
		SortBy:  DefaultSortBy,
	}
}

// Normalize returns a copy with sorted unique genres, lower-cased language
// and a default sort order. Two specs selecting the same feed normalize to
// the same value.
func (f FilterSpec) Normalize() FilterSpec {
	out := f
	out.Genres = slices.Clone(f.Genres)
	if out.Genres == nil {
		out.Genres = []int{}
	}
	slices.Sort(out.Genres)
	out.Genres = slices.Compact(out.Genres)
	out.Language = strings.ToLower(strings.TrimSpace(f.Language))
	out.SortBy = strings.TrimSpace(f.SortBy)
	if out.SortBy == "" {
		out.SortBy = DefaultSortBy
	}
	return out
}

func (f FilterSpec) Validate(now time.Time) error {
	maxYear := now.Year() + 1
	for _, y := range []int{f.YearMin, f.YearMax} {
		if y != 0 && (y < MinYear || y > maxYear) {
			return fmt.Errorf("%w: %d not in [%d, %d]", ErrYearOutOfRange, y, MinYear, maxYear)
		}
	}
	if f.YearMin != 0 && f.YearMax != 0 && f.YearMin > f.YearMax {
		return ErrYearOrder
	}
	if f.RatingMin < 0 || f.RatingMin > MaxRating {
		return fmt.Errorf("%w: %v", ErrRatingOutOfRange, f.RatingMin)
	}
	if f.Language != "" && !languageRe.MatchString(f.Language) {
		return ErrBadLanguage
	}
	if f.SortBy != "" && !sortByRe.MatchString(f.SortBy) {
		return ErrBadSortBy
	}
	for _, g := range f.Genres {
		if g <= 0 {
			return ErrBadGenre
		}
	}
	return nil
}

// Signature is a stable serialization used to key cursors and snapshots.
// Call it on a normalized spec.
func (f FilterSpec) Signature() string {
	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, strconv.Itoa(g))
	}
	return strings.Join([]string{
		strings.Join(genres, ","),
		optionalInt(f.YearMin),
		optionalInt(f.YearMax),
		strconv.FormatFloat(f.RatingMin, 'f', -1, 64),
		f.Language,
		f.SortBy,
	}, "|")
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
