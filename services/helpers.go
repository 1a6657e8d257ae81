package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mlbb-arena/arena-backend/models"
	"github.com/mlbb-arena/arena-backend/storage"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GetExtensionFromContentType сопоставляет MIME-тип изображения
// с расширением файла для ключа в объектном хранилище.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImageType, contentType)
	}
}

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*user.AvatarKey); url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team != nil && team.LogoKey != nil && *team.LogoKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*team.LogoKey); url != "" {
			team.LogoURL = &url
		}
	}
}

func populateNewsImageURL(item *models.News, uploader storage.FileUploader) {
	if item != nil && item.ImageKey != nil && *item.ImageKey != "" && uploader != nil {
		if url := uploader.GetPublicURL(*item.ImageKey); url != "" {
			item.ImageURL = &url
		}
	}
}

// DisplayName форматирует имя пользователя так же, как это делает фронтенд:
// никнейм, иначе имя и фамилия, иначе email.
func DisplayName(u *models.User) string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return u.Email
}
