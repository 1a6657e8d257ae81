package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/repositories"
)

// AdminService покрывает операции админ-панели: список пользователей,
// назначение ролей, удаление аккаунтов.
type AdminService interface {
	ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error)
	ChangeUserRole(ctx context.Context, userID int, role models.UserRole) error
	DeleteUser(ctx context.Context, userID int) error
}

type adminService struct {
	userRepo repositories.UserRepository
}

func NewAdminService(userRepo repositories.UserRepository) AdminService {
	return &adminService{userRepo: userRepo}
}

func (s *adminService) ListUsers(ctx context.Context, filter models.UserFilter) (models.UserListResponse, error) {
	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return models.UserListResponse{}, fmt.Errorf("failed to list users: %w", err)
	}

	for i := range users {
		users[i].PasswordHash = ""
	}
	return models.UserListResponse{
		Users:      users,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *adminService) ChangeUserRole(ctx context.Context, userID int, role models.UserRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to change role for user %d: %w", userID, err)
	}
	return nil
}

func (s *adminService) DeleteUser(ctx context.Context, userID int) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	return nil
}
