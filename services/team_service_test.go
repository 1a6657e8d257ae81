package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mockDB
}

func teamWithMembers(teamID, captainID int, memberIDs ...int) (*models.Team, []models.User) {
	team := &models.Team{ID: teamID, Name: "Night Raid", CaptainID: captainID}
	return team, fullRoster(teamID, memberIDs...)
}

func TestTeamService_CreateTeam(t *testing.T) {
	t.Run("создатель становится капитаном и единственным участником", func(t *testing.T) {
		db, mockDB := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		uploader := new(MockFileUploader)
		service := NewTeamService(db, teamRepo, userRepo, uploader)

		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1}, nil).Once()

		mockDB.ExpectBegin()
		teamRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(team *models.Team) bool {
			return team.Name == "Night Raid" && team.CaptainID == 1
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*models.Team).ID = 42
		}).Return(nil)
		userRepo.On("UpdateTeamID", mock.Anything, mock.Anything, 1, mock.MatchedBy(func(teamID *int) bool {
			return teamID != nil && *teamID == 42
		})).Return(nil)
		mockDB.ExpectCommit()

		created := &models.Team{ID: 42, Name: "Night Raid", CaptainID: 1}
		teamRepo.On("GetByID", mock.Anything, 42).Return(created, nil)
		teamID := 42
		userRepo.On("ListByTeamID", mock.Anything, 42).Return([]models.User{{ID: 1, TeamID: &teamID}}, nil)

		team, err := service.CreateTeam(context.Background(), 1, CreateTeamInput{Name: "Night Raid"})

		require.NoError(t, err)
		assert.Equal(t, 42, team.ID)
		assert.Equal(t, 1, team.CaptainID)
		assert.Equal(t, 1, team.MemberCount)
		require.NoError(t, mockDB.ExpectationsWereMet())
		teamRepo.AssertExpectations(t)
	})

	t.Run("создатель уже состоит в команде", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		existingTeam := 7
		userRepo.On("GetByID", mock.Anything, 1).Return(&models.User{ID: 1, TeamID: &existingTeam}, nil)

		_, err := service.CreateTeam(context.Background(), 1, CreateTeamInput{Name: "Night Raid"})

		assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
		teamRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestTeamService_AddMember(t *testing.T) {
	t.Run("полный состав не принимает шестого", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, roster := teamWithMembers(3, 1, 1, 2, 3, 4, 5)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("GetByID", mock.Anything, 6).Return(&models.User{ID: 6}, nil)
		userRepo.On("ListByTeamID", mock.Anything, 3).Return(roster, nil)

		err := service.AddMember(context.Background(), 3, 1, 6)

		assert.ErrorIs(t, err, ErrTeamFull)
		userRepo.AssertNotCalled(t, "UpdateTeamID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("только капитан добавляет участников", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, _ := teamWithMembers(3, 1, 1, 2)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)

		err := service.AddMember(context.Background(), 3, 2, 6)

		assert.ErrorIs(t, err, ErrCaptainActionForbidden)
	})

	t.Run("кандидат уже состоит в другой команде", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, _ := teamWithMembers(3, 1, 1, 2)
		otherTeam := 9
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("GetByID", mock.Anything, 6).Return(&models.User{ID: 6, TeamID: &otherTeam}, nil)

		err := service.AddMember(context.Background(), 3, 1, 6)

		assert.ErrorIs(t, err, ErrUserAlreadyInTeam)
	})
}

func TestTeamService_RemoveMember(t *testing.T) {
	t.Run("капитана нельзя удалить из команды", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, _ := teamWithMembers(3, 1, 1, 2)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)

		err := service.RemoveMember(context.Background(), 3, 1, 1)

		assert.ErrorIs(t, err, ErrCaptainCannotBeRemoved)
	})

	t.Run("удаление рядового участника", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, _ := teamWithMembers(3, 1, 1, 2)
		teamID := 3
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("GetByID", mock.Anything, 2).Return(&models.User{ID: 2, TeamID: &teamID}, nil)
		userRepo.On("UpdateTeamID", mock.Anything, mock.Anything, 2, (*int)(nil)).Return(nil)

		err := service.RemoveMember(context.Background(), 3, 1, 2)

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})
}

func TestTeamService_LeaveTeam(t *testing.T) {
	t.Run("капитанство переходит оставшемуся участнику", func(t *testing.T) {
		db, mockDB := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, roster := teamWithMembers(3, 1, 1, 2, 4)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("ListByTeamID", mock.Anything, 3).Return(roster, nil)

		mockDB.ExpectBegin()
		userRepo.On("UpdateTeamID", mock.Anything, mock.Anything, 1, (*int)(nil)).Return(nil)
		teamRepo.On("UpdateCaptain", mock.Anything, mock.Anything, 3, 2).Return(nil)
		mockDB.ExpectCommit()

		err := service.LeaveTeam(context.Background(), 3, 1)

		require.NoError(t, err)
		require.NoError(t, mockDB.ExpectationsWereMet())
		teamRepo.AssertExpectations(t)
	})

	t.Run("последний участник забирает команду с собой", func(t *testing.T) {
		db, mockDB := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, roster := teamWithMembers(3, 1, 1)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("ListByTeamID", mock.Anything, 3).Return(roster, nil)

		mockDB.ExpectBegin()
		userRepo.On("UpdateTeamID", mock.Anything, mock.Anything, 1, (*int)(nil)).Return(nil)
		teamRepo.On("Delete", mock.Anything, mock.Anything, 3).Return(nil)
		mockDB.ExpectCommit()

		err := service.LeaveTeam(context.Background(), 3, 1)

		require.NoError(t, err)
		require.NoError(t, mockDB.ExpectationsWereMet())
		teamRepo.AssertExpectations(t)
	})

	t.Run("уход рядового участника не трогает капитанство", func(t *testing.T) {
		db, mockDB := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, roster := teamWithMembers(3, 1, 1, 2)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("ListByTeamID", mock.Anything, 3).Return(roster, nil)

		mockDB.ExpectBegin()
		userRepo.On("UpdateTeamID", mock.Anything, mock.Anything, 2, (*int)(nil)).Return(nil)
		mockDB.ExpectCommit()

		err := service.LeaveTeam(context.Background(), 3, 2)

		require.NoError(t, err)
		require.NoError(t, mockDB.ExpectationsWereMet())
		teamRepo.AssertNotCalled(t, "UpdateCaptain", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		teamRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("посторонний пользователь не может покинуть команду", func(t *testing.T) {
		db, _ := setupMockDB(t)
		teamRepo := new(MockTeamRepository)
		userRepo := new(MockUserRepository)
		service := NewTeamService(db, teamRepo, userRepo, new(MockFileUploader))

		team, roster := teamWithMembers(3, 1, 1, 2)
		teamRepo.On("GetByID", mock.Anything, 3).Return(team, nil)
		userRepo.On("ListByTeamID", mock.Anything, 3).Return(roster, nil)

		err := service.LeaveTeam(context.Background(), 3, 99)

		assert.ErrorIs(t, err, ErrNotTeamMember)
	})
}
