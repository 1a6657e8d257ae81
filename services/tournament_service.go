package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mlbb-arena/arena-backend/live"
	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
	"github.com/mlbb-arena/arena-backend/storage"
)

const statusWatchInterval = 60 * time.Second

type CreateTournamentInput struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	PrizePool   float64    `json:"prize_pool"`
	Rules       *string    `json:"rules"`
}

type UpdateTournamentInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	PrizePool   *float64   `json:"prize_pool"`
	Rules       *string    `json:"rules"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id, currentUserID int, currentRole models.UserRole, input UpdateTournamentInput) (*models.Tournament, error)
	StartStatusWatcher(ctx context.Context)
}

// tournamentService не хранит статус турнира: он выводится из дат на
// каждом чтении. Наблюдатель статусов нужен только для live-рассылки.
type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	uploader       storage.FileUploader
	hub            *live.Hub
	logger         *slog.Logger
	now            func() time.Time

	mu       sync.Mutex
	lastSeen map[int]models.TournamentStatus
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	uploader storage.FileUploader,
	hub *live.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		uploader:       uploader,
		hub:            hub,
		logger:         logger,
		now:            time.Now,
		lastSeen:       make(map[int]models.TournamentStatus),
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrTournamentNameRequired
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}
	if input.PrizePool < 0 {
		return nil, ErrTournamentInvalidPrizePool
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		PrizePool:   input.PrizePool,
		Rules:       input.Rules,
		OrganizerID: organizerID,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return s.GetTournament(ctx, tournament.ID)
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	s.decorate(tournament)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.decorate(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id, currentUserID int, currentRole models.UserRole, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.requireManageable(ctx, id, currentUserID, currentRole)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = *input.Name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = input.EndDate
	}
	if input.PrizePool != nil {
		if *input.PrizePool < 0 {
			return nil, ErrTournamentInvalidPrizePool
		}
		tournament.PrizePool = *input.PrizePool
	}
	if input.Rules != nil {
		tournament.Rules = input.Rules
	}
	if tournament.EndDate != nil && !tournament.EndDate.After(tournament.StartDate) {
		return nil, ErrTournamentInvalidDateRange
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}
	return s.GetTournament(ctx, id)
}

// StartStatusWatcher раз в минуту сверяет вычисленные статусы с тем,
// что рассылалось раньше, и транслирует переходы подписчикам.
// Завершается вместе с контекстом.
func (s *tournamentService) StartStatusWatcher(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(statusWatchInterval)
		defer ticker.Stop()

		s.logger.Info("tournament status watcher started", slog.Duration("interval", statusWatchInterval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("tournament status watcher stopped")
				return
			case <-ticker.C:
				s.broadcastTransitions(ctx)
			}
		}
	}()
}

func (s *tournamentService) broadcastTransitions(ctx context.Context) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		s.logger.Error("status watcher: failed to list tournaments", slog.Any("error", err))
		return
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range tournaments {
		t := &tournaments[i]
		current := t.StatusAt(now)
		previous, seen := s.lastSeen[t.ID]
		s.lastSeen[t.ID] = current
		if !seen || previous == current {
			continue
		}
		s.logger.Info("tournament status changed",
			slog.Int("tournament_id", t.ID),
			slog.String("old_status", string(previous)),
			slog.String("new_status", string(current)),
		)
		s.hub.BroadcastStatusChange(t.ID, previous, current)
	}
}

func (s *tournamentService) requireManageable(ctx context.Context, id, userID int, role models.UserRole) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	if tournament.OrganizerID != userID && role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}

func (s *tournamentService) decorate(t *models.Tournament) {
	t.Status = t.StatusAt(s.now())
	if t.Organizer != nil {
		populateUserDetails(t.Organizer, s.uploader)
	}
}
