package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistrationRepo(t *testing.T) (RegistrationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRegistrationRepository(db), mock
}

func TestRegistrationRepository_Create(t *testing.T) {
	t.Run("успешная регистрация", func(t *testing.T) {
		repo, mock := setupRegistrationRepo(t)

		now := time.Now()
		mock.ExpectQuery("INSERT INTO tournament_registrations").
			WithArgs(10, 3).
			WillReturnRows(sqlmock.NewRows([]string{"id", "registered_at"}).AddRow(1, now))

		reg := &models.Registration{TournamentID: 10, TeamID: 3}
		err := repo.Create(context.Background(), reg)

		require.NoError(t, err)
		assert.Equal(t, 1, reg.ID)
		assert.Equal(t, now, reg.RegisteredAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("уникальная пара турнир-команда", func(t *testing.T) {
		repo, mock := setupRegistrationRepo(t)

		mock.ExpectQuery("INSERT INTO tournament_registrations").
			WithArgs(10, 3).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "tournament_registrations_pair_key"})

		err := repo.Create(context.Background(), &models.Registration{TournamentID: 10, TeamID: 3})

		assert.ErrorIs(t, err, ErrRegistrationConflict)
	})

	t.Run("несуществующий турнир", func(t *testing.T) {
		repo, mock := setupRegistrationRepo(t)

		mock.ExpectQuery("INSERT INTO tournament_registrations").
			WithArgs(99, 3).
			WillReturnError(&pq.Error{Code: "23503", Constraint: "tournament_registrations_tournament_id_fkey"})

		err := repo.Create(context.Background(), &models.Registration{TournamentID: 99, TeamID: 3})

		assert.ErrorIs(t, err, ErrRegistrationTournamentInvalid)
	})
}

func TestRegistrationRepository_FindByTournamentAndTeam(t *testing.T) {
	t.Run("регистрация не найдена", func(t *testing.T) {
		repo, mock := setupRegistrationRepo(t)

		mock.ExpectQuery("SELECT id, tournament_id, team_id, registered_at").
			WithArgs(10, 3).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByTournamentAndTeam(context.Background(), 10, 3)

		assert.ErrorIs(t, err, ErrRegistrationNotFound)
	})
}

func TestRegistrationRepository_ListByTournament(t *testing.T) {
	t.Run("регистрации приходят с командами в порядке подачи", func(t *testing.T) {
		repo, mock := setupRegistrationRepo(t)

		first := time.Now().Add(-time.Hour)
		second := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "tournament_id", "team_id", "registered_at",
			"id", "name", "logo_key", "captain_id",
		}).
			AddRow(1, 10, 3, first, 3, "Night Raid", nil, 1).
			AddRow(2, 10, 4, second, 4, "Void Walkers", "teams/4/logo.png", 6)

		mock.ExpectQuery("FROM tournament_registrations r").
			WithArgs(10).
			WillReturnRows(rows)

		regs, err := repo.ListByTournament(context.Background(), 10)

		require.NoError(t, err)
		require.Len(t, regs, 2)
		assert.Equal(t, "Night Raid", regs[0].Team.Name)
		assert.Equal(t, "Void Walkers", regs[1].Team.Name)
		require.NotNil(t, regs[1].Team.LogoKey)
		assert.Equal(t, "teams/4/logo.png", *regs[1].Team.LogoKey)
	})
}
