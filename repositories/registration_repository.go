package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mlbb-arena/arena-backend/models"
)

var (
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("team already registered for this tournament")
	ErrRegistrationTeamInvalid       = errors.New("registration team invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByTournamentAndTeam(ctx context.Context, tournamentID, teamID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO tournament_registrations (tournament_id, team_id)
		VALUES ($1, $2)
		RETURNING id, registered_at`

	err := r.db.QueryRowContext(ctx, query, reg.TournamentID, reg.TeamID).
		Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "tournament_registrations_pair_key" {
					return ErrRegistrationConflict
				}
			case "23503":
				switch pqErr.Constraint {
				case "tournament_registrations_team_id_fkey":
					return ErrRegistrationTeamInvalid
				case "tournament_registrations_tournament_id_fkey":
					return ErrRegistrationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) FindByTournamentAndTeam(ctx context.Context, tournamentID, teamID int) (*models.Registration, error) {
	query := `
		SELECT id, tournament_id, team_id, registered_at
		FROM tournament_registrations
		WHERE tournament_id = $1 AND team_id = $2`

	reg := &models.Registration{}
	err := r.db.QueryRowContext(ctx, query, tournamentID, teamID).Scan(
		&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

// ListByTournament возвращает регистрации вместе с командами.
func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	query := `
		SELECT
			r.id, r.tournament_id, r.team_id, r.registered_at,
			t.id, t.name, t.logo_key, t.captain_id
		FROM tournament_registrations r
		JOIN teams t ON r.team_id = t.id
		WHERE r.tournament_id = $1
		ORDER BY r.registered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var team models.Team
		if err := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.RegisteredAt,
			&team.ID, &team.Name, &team.LogoKey, &team.CaptainID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Team = &team
		registrations = append(registrations, reg)
	}
	return registrations, rows.Err()
}
