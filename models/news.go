package models

import "time"

type NewsCategory string

const (
	CategoryTournaments NewsCategory = "tournaments"
	CategoryTeams       NewsCategory = "teams"
	CategoryUpdates     NewsCategory = "updates"
)

func (c NewsCategory) Valid() bool {
	switch c {
	case CategoryTournaments, CategoryTeams, CategoryUpdates:
		return true
	}
	return false
}

type News struct {
	ID          int          `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Summary     string       `json:"summary" db:"summary"`
	Content     string       `json:"content" db:"content"`
	Category    NewsCategory `json:"category" db:"category"`
	AuthorID    int          `json:"author_id" db:"author_id"`
	PublishedAt time.Time    `json:"published_at" db:"published_at"`

	ImageKey *string `json:"-" db:"image_key"`
	ImageURL *string `json:"image_url,omitempty" db:"-"`

	Author *User `json:"author,omitempty" db:"-"`
}
