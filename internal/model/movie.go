package model

const EmptyTitle string = ""

// CandidateItem is a movie as seen by a session. ItemID is assigned locally
// on first reaction; ExternalID comes from the metadata source.
type CandidateItem struct {
	ItemID     int64  `json:"item_id,omitempty"`
	ExternalID int64  `json:"external_id"`
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Tags       []int  `json:"tags,omitempty"`
}

type FeedPage struct {
	Items  []CandidateItem
	Page   int
	IsLast bool
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Trailer struct {
	Site string `json:"site"`
	Key  string `json:"key"`
}

type MovieDetails struct {
	ExternalID  int64    `json:"external_id"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
	Runtime     *int     `json:"runtime,omitempty"`
	Overview    string   `json:"overview"`
	AgeRating   string   `json:"age_rating"`
	Genres      []Genre  `json:"genres"`
	Trailer     *Trailer `json:"trailer"`
}
