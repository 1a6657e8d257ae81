package models

import "time"

// TournamentStatus описывает производное состояние жизненного цикла
// турнира. В БД не хранится, вычисляется при чтении.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID          int        `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" db:"end_date"`
	PrizePool   float64    `json:"prize_pool" db:"prize_pool"`
	Rules       *string    `json:"rules,omitempty" db:"rules"`
	OrganizerID int        `json:"organizer_id" db:"organizer_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	Status          TournamentStatus `json:"status" db:"-"`
	RegisteredCount int              `json:"registered_count" db:"-"`

	Organizer *User `json:"organizer,omitempty" db:"-"`
}

// StatusAt вычисляет состояние турнира на момент now.
// Переходы однонаправленные: upcoming -> ongoing -> completed.
// Турнир без даты окончания после старта остаётся ongoing навсегда.
func (t *Tournament) StatusAt(now time.Time) TournamentStatus {
	if t.EndDate != nil && now.After(*t.EndDate) {
		return StatusCompleted
	}
	if !now.Before(t.StartDate) {
		return StatusOngoing
	}
	return StatusUpcoming
}
