package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
	"github.com/mlbb-arena/arena-backend/storage"
)

type CreateTeamInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type UpdateTeamInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, creatorID int, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	UpdateTeam(ctx context.Context, teamID, currentUserID int, input UpdateTeamInput) (*models.Team, error)
	UploadLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error)
	AddMember(ctx context.Context, teamID, currentUserID, memberID int) error
	RemoveMember(ctx context.Context, teamID, currentUserID, memberID int) error
	LeaveTeam(ctx context.Context, teamID, currentUserID int) error
	DeleteTeam(ctx context.Context, teamID, currentUserID int) error
}

// teamService держит *sql.DB: изменения состава затрагивают строку команды
// и обратные ссылки пользователей, эти записи выполняются одной транзакцией.
type teamService struct {
	db       *sql.DB
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewTeamService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		db:       db,
		teamRepo: teamRepo,
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, creatorID int, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}

	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", creatorID, err)
	}
	if creator.TeamID != nil {
		return nil, ErrUserAlreadyInTeam
	}

	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
		CaptainID:   creatorID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	if err := s.userRepo.UpdateTeamID(ctx, tx, creatorID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to assign creator to team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}
	return s.GetTeam(ctx, team.ID)
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}

	members, err := s.userRepo.ListByTeamID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	for i := range members {
		populateUserDetails(&members[i], s.uploader)
	}
	team.Members = members
	team.MemberCount = len(members)

	populateTeamLogoURL(team, s.uploader)
	populateUserDetails(team.Captain, s.uploader)
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for i := range teams {
		populateTeamLogoURL(&teams[i], s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID, currentUserID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = input.Description
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}
	return s.GetTeam(ctx, teamID)
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, currentUserID int, contentType string, file io.Reader) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, teamID, currentUserID)
	if err != nil {
		return nil, err
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("teams/%d/%s%s", teamID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store team logo key: %w", err)
	}
	if oldKey != nil && *oldKey != "" {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	return s.GetTeam(ctx, teamID)
}

func (s *teamService) AddMember(ctx context.Context, teamID, currentUserID, memberID int) error {
	if _, err := s.requireCaptain(ctx, teamID, currentUserID); err != nil {
		return err
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", memberID, err)
	}
	if member.TeamID != nil {
		return ErrUserAlreadyInTeam
	}

	roster, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list team members: %w", err)
	}
	if len(roster) >= models.MaxTeamSize {
		return ErrTeamFull
	}

	if err := s.userRepo.UpdateTeamID(ctx, s.db, memberID, &teamID); err != nil {
		return fmt.Errorf("failed to add member %d to team %d: %w", memberID, teamID, err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, currentUserID, memberID int) error {
	team, err := s.requireCaptain(ctx, teamID, currentUserID)
	if err != nil {
		return err
	}
	if memberID == team.CaptainID {
		return ErrCaptainCannotBeRemoved
	}

	member, err := s.userRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", memberID, err)
	}
	if member.TeamID == nil || *member.TeamID != teamID {
		return ErrNotTeamMember
	}

	if err := s.userRepo.UpdateTeamID(ctx, s.db, memberID, nil); err != nil {
		return fmt.Errorf("failed to remove member %d from team %d: %w", memberID, teamID, err)
	}
	return nil
}

// LeaveTeam выводит пользователя из команды. Если уходит капитан,
// капитанство переходит одному из оставшихся. Когда уходит последний
// участник, команда удаляется.
func (s *teamService) LeaveTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

	roster, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list team members: %w", err)
	}

	var remaining []models.User
	found := false
	for _, member := range roster {
		if member.ID == currentUserID {
			found = true
			continue
		}
		remaining = append(remaining, member)
	}
	if !found {
		return ErrNotTeamMember
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.UpdateTeamID(ctx, tx, currentUserID, nil); err != nil {
		return fmt.Errorf("failed to clear team reference: %w", err)
	}

	if len(remaining) == 0 {
		if err := s.teamRepo.Delete(ctx, tx, teamID); err != nil {
			return fmt.Errorf("failed to delete empty team %d: %w", teamID, err)
		}
	} else if team.CaptainID == currentUserID {
		if err := s.teamRepo.UpdateCaptain(ctx, tx, teamID, remaining[0].ID); err != nil {
			return fmt.Errorf("failed to reassign captain for team %d: %w", teamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leave: %w", err)
	}
	return nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.requireCaptain(ctx, teamID, currentUserID)
	if err != nil {
		return err
	}

	// users.team_id объявлен ON DELETE SET NULL, обратные ссылки
	// участников чистятся самим удалением строки команды.
	if err := s.teamRepo.Delete(ctx, s.db, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}

	if team.LogoKey != nil && *team.LogoKey != "" {
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}
	return nil
}

func (s *teamService) requireCaptain(ctx context.Context, teamID, userID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.CaptainID != userID {
		return nil, ErrCaptainActionForbidden
	}
	return team, nil
}
