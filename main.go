package main

import (
	"log/slog"
	"net/http"
	"os"

	"cmcs/claims"
	"cmcs/config"
	"cmcs/database"
	"cmcs/handlers"
	"cmcs/middleware"
	"cmcs/models"
	"cmcs/notifications"
	"cmcs/reports"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	middleware.SetJWTSecret(cfg.JWTSecret)

	if err := database.Init(cfg.DatabaseURL); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	db := database.GetDB()
	notifier := notifications.NewService(db)
	engine := claims.NewEngine(database.NewClaimRepository(db), notifier, logger)
	statsCache := reports.NewStatsCache()

	authHandler := handlers.NewAuthHandler(cfg)
	claimsHandler := handlers.NewClaimsHandler(cfg, engine, statsCache)
	reviewHandler := handlers.NewReviewHandler(engine, statsCache)
	adminHandler := handlers.NewAdminHandler(notifier)
	notificationsHandler := handlers.NewNotificationsHandler(notifier)
	reportsHandler := handlers.NewReportsHandler(statsCache)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Post("/login", authHandler.Login)
	router.Post("/register", authHandler.Register)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Post("/logout", authHandler.Logout)
		r.Post("/change-password", authHandler.ChangePassword)

		// Routes that require the password to be changed first
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePasswordChange)

			r.Get("/dashboard", reportsHandler.Dashboard)

			r.Get("/notifications", notificationsHandler.List)
			r.Post("/notifications/read-all", notificationsHandler.MarkAllRead)
			r.Post("/notifications/{id}/read", notificationsHandler.MarkRead)

			// Claims: submission and viewing
			r.Post("/claims", claimsHandler.Submit)
			r.Get("/claims", claimsHandler.List)
			r.Get("/claims/{id}", claimsHandler.Get)
			r.Post("/claims/{id}/documents", claimsHandler.UploadDocuments)
			r.Get("/claims/{id}/documents", claimsHandler.ListDocuments)

			// Coordinator gate
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleCoordinator, models.RoleAdministrator))
				r.Get("/coordinator/claims", reviewHandler.CoordinatorDashboard)
				r.Post("/coordinator/claims/{id}/approve", reviewHandler.CoordinatorApprove)
				r.Post("/coordinator/claims/{id}/reject", reviewHandler.CoordinatorReject)
			})

			// Manager gate and single-stage processing
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleManager, models.RoleAdministrator))
				r.Get("/manager/claims", reviewHandler.ManagerDashboard)
				r.Post("/manager/claims/{id}/approve", reviewHandler.FinalApprove)
				r.Post("/manager/claims/{id}/reject", reviewHandler.FinalReject)
				r.Post("/claims/{id}/approve", reviewHandler.Approve)
				r.Post("/claims/{id}/reject", reviewHandler.Reject)
			})

			// Reporting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleManager, models.RoleAdministrator))
				r.Get("/reports/payments.csv", reportsHandler.PaymentReportCSV)
			})

			// Administrator only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdministrator))
				r.Get("/admin/users", adminHandler.ListUsers)
				r.Post("/admin/users", adminHandler.CreateUser)
				r.Put("/admin/users/{id}", adminHandler.UpdateUser)
				r.Delete("/admin/users/{id}", adminHandler.DeleteUser)
				r.Get("/admin/invites", authHandler.ListInvites)
				r.Post("/admin/invites", authHandler.CreateInvite)
			})
		})
	})

	logger.Info("server starting", "port", cfg.ServerPort)
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
