package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mlbb-arena/arena-backend/handlers"
	"github.com/mlbb-arena/arena-backend/middleware"
	"github.com/mlbb-arena/arena-backend/models"
)

// SetupRoutes собирает все маршруты приложения на одном роутере.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	tournamentHandler *handlers.TournamentHandler,
	newsHandler *handlers.NewsHandler,
	streamHandler *handlers.StreamHandler,
	adminHandler *handlers.AdminHandler,
	liveHandler *handlers.LiveHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/confirm-email", authHandler.ConfirmEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	router.Route("/users", func(r chi.Router) {
		r.Get("/{id}", userHandler.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", userHandler.GetCurrentUser)
			r.Patch("/me", userHandler.UpdateProfile)
			r.Post("/me/avatar", userHandler.UploadAvatar)
			r.Delete("/me/avatar", userHandler.RemoveAvatar)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", teamHandler.ListTeams)
		r.Get("/{id}", teamHandler.GetTeam)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", teamHandler.CreateTeam)
			r.Patch("/{id}", teamHandler.UpdateTeam)
			r.Delete("/{id}", teamHandler.DeleteTeam)
			r.Post("/{id}/logo", teamHandler.UploadLogo)
			r.Post("/{id}/members", teamHandler.AddMember)
			r.Delete("/{id}/members/{userID}", teamHandler.RemoveMember)
			r.Post("/{id}/leave", teamHandler.LeaveTeam)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListTournaments)
		r.Get("/{id}", tournamentHandler.GetTournament)
		r.Get("/{id}/registrations", tournamentHandler.ListRegistrations)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{id}/register", tournamentHandler.RegisterTeam)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(string(models.RoleOrganizer), string(models.RoleAdmin)))
			r.Post("/", tournamentHandler.CreateTournament)
			r.Patch("/{id}", tournamentHandler.UpdateTournament)
		})
	})

	router.Route("/news", func(r chi.Router) {
		r.Get("/", newsHandler.ListNews)
		r.Get("/{id}", newsHandler.GetNews)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(string(models.RoleEditor), string(models.RoleAdmin)))
			r.Post("/", newsHandler.CreateNews)
			r.Patch("/{id}", newsHandler.UpdateNews)
			r.Delete("/{id}", newsHandler.DeleteNews)
			r.Post("/{id}/image", newsHandler.UploadImage)
		})
	})

	router.Get("/streams", streamHandler.GetListing)

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(string(models.RoleAdmin)))
		r.Get("/users", adminHandler.ListUsers)
		r.Patch("/users/{id}/role", adminHandler.ChangeUserRole)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
	})

	router.Get("/ws/tournaments", liveHandler.ServeWs)
}
