package models

import "time"

// MaxTeamSize задаёт полный состав команды, включая капитана.
const MaxTeamSize = 5

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CaptainID   int       `json:"captain_id" db:"captain_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	Captain     *User  `json:"captain,omitempty" db:"-"`
	Members     []User `json:"members,omitempty" db:"-"`
	MemberCount int    `json:"member_count" db:"-"`
}
