package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
	"github.com/mlbb-arena/arena-backend/storage"
)

type RegistrationService interface {
	RegisterTeam(ctx context.Context, tournamentID, userID int) (*models.Registration, int, error)
	ListRegistrations(ctx context.Context, tournamentID int) ([]models.Registration, error)
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	userRepo         repositories.UserRepository
	uploader         storage.FileUploader
	now              func() time.Time
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) RegistrationService {
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		userRepo:         userRepo,
		uploader:         uploader,
		now:              time.Now,
	}
}

// RegisterTeam регистрирует команду текущего пользователя на турнир.
// Проверки идут строго по порядку, чтобы пользователь получал самую
// раннюю из применимых причин отказа: нет команды, не участник,
// неполный состав, регистрация закрыта, уже зарегистрированы.
func (s *registrationService) RegisterTeam(ctx context.Context, tournamentID, userID int) (*models.Registration, int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	if user.TeamID == nil {
		return nil, 0, ErrNoTeam
	}
	teamID := *user.TeamID

	roster, err := s.userRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list team members: %w", err)
	}
	isMember := false
	for _, member := range roster {
		if member.ID == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, 0, ErrNotTeamMember
	}
	if len(roster) < models.MaxTeamSize {
		return nil, 0, fmt.Errorf("%w: в составе %d из %d игроков", ErrRosterIncomplete, len(roster), models.MaxTeamSize)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, 0, ErrTournamentNotFound
		}
		return nil, 0, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}
	if tournament.StatusAt(s.now()) != models.StatusUpcoming {
		return nil, 0, ErrRegistrationClosed
	}

	existing, err := s.registrationRepo.FindByTournamentAndTeam(ctx, tournamentID, teamID)
	if err != nil && !errors.Is(err, repositories.ErrRegistrationNotFound) {
		return nil, 0, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, 0, ErrAlreadyRegistered
	}

	reg := &models.Registration{
		TournamentID: tournamentID,
		TeamID:       teamID,
	}
	if err := s.registrationRepo.Create(ctx, reg); err != nil {
		// Параллельная регистрация той же пары ловится ограничением БД.
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, 0, ErrAlreadyRegistered
		}
		return nil, 0, fmt.Errorf("failed to create registration: %w", err)
	}
	return reg, tournament.RegisteredCount + 1, nil
}

func (s *registrationService) ListRegistrations(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", tournamentID, err)
	}

	regs, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	for i := range regs {
		if regs[i].Team != nil {
			populateTeamLogoURL(regs[i].Team, s.uploader)
		}
	}
	return regs, nil
}
