package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mlbb-arena/arena-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTournamentService(tournamentRepo *MockTournamentRepository) *tournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		uploader:       new(MockFileUploader),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:            fixedNow,
		lastSeen:       make(map[int]models.TournamentStatus),
	}
}

func TestTournamentService_CreateTournament(t *testing.T) {
	t.Run("дата окончания не может предшествовать старту", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		start := fixedNow().Add(24 * time.Hour)
		end := start.Add(-time.Hour)
		_, err := service.CreateTournament(context.Background(), 1, CreateTournamentInput{
			Name:      "Arena Cup",
			StartDate: start,
			EndDate:   &end,
		})

		assert.ErrorIs(t, err, ErrTournamentInvalidDateRange)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("отрицательный призовой фонд", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		_, err := service.CreateTournament(context.Background(), 1, CreateTournamentInput{
			Name:      "Arena Cup",
			StartDate: fixedNow().Add(24 * time.Hour),
			PrizePool: -100,
		})

		assert.ErrorIs(t, err, ErrTournamentInvalidPrizePool)
	})

	t.Run("турнир без даты окончания допустим", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		start := fixedNow().Add(24 * time.Hour)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(tr *models.Tournament) bool {
			return tr.Name == "Arena Cup" && tr.OrganizerID == 1 && tr.EndDate == nil
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Tournament).ID = 10
		}).Return(nil)
		repo.On("GetByID", mock.Anything, 10).Return(&models.Tournament{
			ID:          10,
			Name:        "Arena Cup",
			StartDate:   start,
			OrganizerID: 1,
		}, nil)

		tournament, err := service.CreateTournament(context.Background(), 1, CreateTournamentInput{
			Name:      "Arena Cup",
			StartDate: start,
		})

		require.NoError(t, err)
		assert.Equal(t, models.StatusUpcoming, tournament.Status)
	})
}

func TestTournamentService_ListTournaments(t *testing.T) {
	t.Run("статус вычисляется на момент запроса", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		ended := fixedNow().Add(-time.Hour)
		repo.On("List", mock.Anything).Return([]models.Tournament{
			{ID: 1, StartDate: fixedNow().Add(24 * time.Hour)},
			{ID: 2, StartDate: fixedNow().Add(-time.Hour)},
			{ID: 3, StartDate: fixedNow().Add(-48 * time.Hour), EndDate: &ended},
		}, nil)

		tournaments, err := service.ListTournaments(context.Background())

		require.NoError(t, err)
		require.Len(t, tournaments, 3)
		assert.Equal(t, models.StatusUpcoming, tournaments[0].Status)
		assert.Equal(t, models.StatusOngoing, tournaments[1].Status)
		assert.Equal(t, models.StatusCompleted, tournaments[2].Status)
	})
}

func TestTournamentService_UpdateTournament(t *testing.T) {
	existing := func() *models.Tournament {
		return &models.Tournament{
			ID:          10,
			Name:        "Arena Cup",
			StartDate:   fixedNow().Add(24 * time.Hour),
			OrganizerID: 1,
		}
	}

	t.Run("чужой организатор не может редактировать", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		repo.On("GetByID", mock.Anything, 10).Return(existing(), nil)

		name := "Renamed Cup"
		_, err := service.UpdateTournament(context.Background(), 10, 2, models.RoleOrganizer, UpdateTournamentInput{Name: &name})

		assert.ErrorIs(t, err, ErrForbiddenOperation)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("администратор редактирует любой турнир", func(t *testing.T) {
		repo := new(MockTournamentRepository)
		service := newTestTournamentService(repo)

		repo.On("GetByID", mock.Anything, 10).Return(existing(), nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(tr *models.Tournament) bool {
			return tr.Name == "Renamed Cup"
		})).Return(nil)

		name := "Renamed Cup"
		tournament, err := service.UpdateTournament(context.Background(), 10, 99, models.RoleAdmin, UpdateTournamentInput{Name: &name})

		require.NoError(t, err)
		assert.Equal(t, "Renamed Cup", tournament.Name)
	})
}
