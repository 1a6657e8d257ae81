package services

import (
	"context"
	"testing"
	"time"

	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestRegistrationService(
	registrationRepo *MockRegistrationRepository,
	tournamentRepo *MockTournamentRepository,
	userRepo *MockUserRepository,
) *registrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		userRepo:         userRepo,
		uploader:         new(MockFileUploader),
		now:              fixedNow,
	}
}

func fullRoster(teamID int, memberIDs ...int) []models.User {
	roster := make([]models.User, 0, len(memberIDs))
	for _, id := range memberIDs {
		roster = append(roster, models.User{ID: id, TeamID: &teamID})
	}
	return roster
}

func TestRegistrationService_RegisterTeam(t *testing.T) {
	upcoming := &models.Tournament{
		ID:              10,
		Name:            "Arena Cup",
		StartDate:       fixedNow().Add(48 * time.Hour),
		RegisteredCount: 4,
	}

	t.Run("успешная регистрация полной команды", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		teamID := 3
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &teamID}, nil)
		userRepo.On("ListByTeamID", mock.Anything, teamID).Return(fullRoster(teamID, 1, 2, 3, 4, 5), nil)
		tournRepo.On("GetByID", mock.Anything, 10).Return(upcoming, nil)
		regRepo.On("FindByTournamentAndTeam", mock.Anything, 10, teamID).
			Return(nil, repositories.ErrRegistrationNotFound)
		regRepo.On("Create", mock.Anything, mock.MatchedBy(func(reg *models.Registration) bool {
			return reg.TournamentID == 10 && reg.TeamID == teamID
		})).Return(nil)

		reg, count, err := service.RegisterTeam(context.Background(), 10, 1)

		require.NoError(t, err)
		assert.Equal(t, 10, reg.TournamentID)
		assert.Equal(t, teamID, reg.TeamID)
		assert.Equal(t, 5, count)
		regRepo.AssertExpectations(t)
	})

	t.Run("пользователь без команды", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil)

		_, _, err := service.RegisterTeam(context.Background(), 10, 1)

		assert.ErrorIs(t, err, ErrNoTeam)
		regRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("неполный состав", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		teamID := 3
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &teamID}, nil)
		userRepo.On("ListByTeamID", mock.Anything, teamID).Return(fullRoster(teamID, 1, 2, 3), nil)

		_, _, err := service.RegisterTeam(context.Background(), 10, 1)

		assert.ErrorIs(t, err, ErrRosterIncomplete)
		// До проверки турнира дело не дошло
		tournRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("регистрация закрыта после старта", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		teamID := 3
		started := &models.Tournament{
			ID:        10,
			StartDate: fixedNow().Add(-time.Hour),
		}
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &teamID}, nil)
		userRepo.On("ListByTeamID", mock.Anything, teamID).Return(fullRoster(teamID, 1, 2, 3, 4, 5), nil)
		tournRepo.On("GetByID", mock.Anything, 10).Return(started, nil)

		_, _, err := service.RegisterTeam(context.Background(), 10, 1)

		assert.ErrorIs(t, err, ErrRegistrationClosed)
		regRepo.AssertNotCalled(t, "FindByTournamentAndTeam", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("повторная регистрация той же команды", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		teamID := 3
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &teamID}, nil)
		userRepo.On("ListByTeamID", mock.Anything, teamID).Return(fullRoster(teamID, 1, 2, 3, 4, 5), nil)
		tournRepo.On("GetByID", mock.Anything, 10).Return(upcoming, nil)
		regRepo.On("FindByTournamentAndTeam", mock.Anything, 10, teamID).
			Return(&models.Registration{ID: 7, TournamentID: 10, TeamID: teamID}, nil)

		_, _, err := service.RegisterTeam(context.Background(), 10, 1)

		assert.ErrorIs(t, err, ErrAlreadyRegistered)
		regRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("гонка на уникальном ограничении", func(t *testing.T) {
		regRepo := new(MockRegistrationRepository)
		tournRepo := new(MockTournamentRepository)
		userRepo := new(MockUserRepository)
		service := newTestRegistrationService(regRepo, tournRepo, userRepo)

		teamID := 3
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &teamID}, nil)
		userRepo.On("ListByTeamID", mock.Anything, teamID).Return(fullRoster(teamID, 1, 2, 3, 4, 5), nil)
		tournRepo.On("GetByID", mock.Anything, 10).Return(upcoming, nil)
		regRepo.On("FindByTournamentAndTeam", mock.Anything, 10, teamID).
			Return(nil, repositories.ErrRegistrationNotFound)
		regRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrRegistrationConflict)

		_, _, err := service.RegisterTeam(context.Background(), 10, 1)

		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})
}
