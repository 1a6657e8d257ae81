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
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Register(t *testing.T) {
	t.Run("новый пользователь получает роль user и токен подтверждения", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Email == "player@example.com" &&
				u.Role == models.RoleUser &&
				!u.EmailConfirmed &&
				u.ConfirmationToken != nil &&
				u.PasswordHash != "" &&
				u.PasswordHash != "secret-password"
		})).Return(nil)

		user, token, err := service.Register(context.Background(), RegisterInput{
			Nickname: "phantom",
			Email:    "  Player@Example.com ",
			Password: "secret-password",
		})

		require.NoError(t, err)
		assert.Equal(t, "player@example.com", user.Email)
		assert.NotEmpty(t, token)
		assert.Empty(t, user.PasswordHash)
		userRepo.AssertExpectations(t)
	})

	t.Run("слишком короткий пароль", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		_, _, err := service.Register(context.Background(), RegisterInput{
			Nickname: "phantom",
			Email:    "player@example.com",
			Password: "short",
		})

		assert.ErrorIs(t, err, ErrPasswordTooShort)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("занятый email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrUserEmailConflict)

		_, _, err := service.Register(context.Background(), RegisterInput{
			Nickname: "phantom",
			Email:    "player@example.com",
			Password: "secret-password",
		})

		assert.ErrorIs(t, err, ErrUserEmailConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("успешный вход", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("GetByEmail", mock.Anything, "player@example.com").Return(&models.User{
			ID:           1,
			Email:        "player@example.com",
			PasswordHash: string(hash),
		}, nil)

		user, err := service.Login(context.Background(), LoginInput{
			Email:    "Player@Example.com",
			Password: "secret-password",
		})

		require.NoError(t, err)
		assert.Equal(t, 1, user.ID)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("GetByEmail", mock.Anything, "player@example.com").Return(&models.User{
			ID:           1,
			PasswordHash: string(hash),
		}, nil)

		_, err := service.Login(context.Background(), LoginInput{
			Email:    "player@example.com",
			Password: "wrong-password",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("неизвестный email не отличим от неверного пароля", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repositories.ErrUserNotFound)

		_, err := service.Login(context.Background(), LoginInput{
			Email:    "ghost@example.com",
			Password: "secret-password",
		})

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_GeneratePasswordResetToken(t *testing.T) {
	t.Run("неизвестный email не выдаёт ошибку", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repositories.ErrUserNotFound)

		token, err := service.GeneratePasswordResetToken(context.Background(), "ghost@example.com")

		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("токен сохраняется со сроком жизни", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		userRepo.On("GetByEmail", mock.Anything, "player@example.com").
			Return(&models.User{ID: 1, Email: "player@example.com"}, nil)
		userRepo.On("SetPasswordResetToken", mock.Anything, 1, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Return(nil)

		token, err := service.GeneratePasswordResetToken(context.Background(), "player@example.com")

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		userRepo.AssertExpectations(t)
	})
}

func TestAuthService_ResetPasswordByToken(t *testing.T) {
	t.Run("просроченный токен", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		expired := time.Now().Add(-time.Minute)
		token := "reset-token"
		userRepo.On("GetByPasswordResetToken", mock.Anything, token).Return(&models.User{
			ID:                     1,
			PasswordResetToken:     &token,
			PasswordResetExpiresAt: &expired,
		}, nil)

		err := service.ResetPasswordByToken(context.Background(), token, "new-password-1")

		assert.ErrorIs(t, err, ErrTokenInvalid)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("валидный токен одноразовый", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewAuthService(userRepo)

		expires := time.Now().Add(30 * time.Minute)
		token := "reset-token"
		userRepo.On("GetByPasswordResetToken", mock.Anything, token).Return(&models.User{
			ID:                     1,
			PasswordResetToken:     &token,
			PasswordResetExpiresAt: &expires,
		}, nil)
		userRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.PasswordResetToken == nil && u.PasswordResetExpiresAt == nil && u.PasswordHash != ""
		})).Return(nil)

		err := service.ResetPasswordByToken(context.Background(), token, "new-password-1")

		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})
}
