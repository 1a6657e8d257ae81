package models

import "time"

// Registration связывает команду с турниром, на который она заявилась.
// Пара (tournament_id, team_id) уникальна; пути отмены регистрации нет.
type Registration struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	TeamID       int       `json:"team_id" db:"team_id"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
