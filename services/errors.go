package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Валидация и бизнес-правила
	ErrValidationFailed           = errors.New("validation failed")
	ErrPasswordTooShort           = errors.New("password is too short")
	ErrTeamNameRequired           = errors.New("team name is required")
	ErrTournamentNameRequired     = errors.New("tournament name is required")
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrTournamentInvalidPrizePool = errors.New("tournament prize pool must not be negative")
	ErrNewsTitleRequired          = errors.New("news title is required")
	ErrNewsInvalidCategory        = errors.New("invalid news category")
	ErrInvalidRole                = errors.New("invalid user role")
	ErrUserAlreadyInTeam          = errors.New("user is already in a team")
	ErrTeamFull                   = errors.New("team already has the maximum number of members")
	ErrUnsupportedImageType       = errors.New("unsupported image content type")

	// Registration gate: каждая предпосылка даёт отдельную причину отказа.
	ErrNoTeam             = errors.New("user has no team")
	ErrNotTeamMember      = errors.New("user is not a member of the team")
	ErrRosterIncomplete   = errors.New("team roster is incomplete")
	ErrRegistrationClosed = errors.New("tournament registration is closed")
	ErrAlreadyRegistered  = errors.New("team is already registered for this tournament")

	// Конфликты
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")

	// Аутентификация и авторизация
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrCaptainCannotBeRemoved = errors.New("the captain cannot be removed from the team")
	ErrTokenInvalid           = errors.New("invalid or expired token")

	// Сущности
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrNewsNotFound       = errors.New("news item not found")
)
