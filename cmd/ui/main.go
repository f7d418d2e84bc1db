package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/checkout"
	"tradesense-go/internal/config"
	"tradesense-go/internal/logger"
	"tradesense-go/internal/models"
	"tradesense-go/internal/prefs"
	"tradesense-go/internal/session"
	"tradesense-go/internal/storage"
	"tradesense-go/internal/trading"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Open durable client storage (token, pending plan, UI preferences)
	store, err := storage.Open(cfg.Storage.DSN)
	if err != nil {
		log.Fatal("Failed to open client storage", zap.Error(err))
	}

	client := api.NewClient(&cfg.API, store, log)

	sessionStore := session.NewStore(client, store, log)
	sessionStore.CheckAuth()

	tradingStore := trading.NewStore(client, log)
	prefsStore := prefs.NewStore(store, log)
	flow := checkout.NewFlow(client, store, log)

	h := NewUIHandler(log, sessionStore, tradingStore, prefsStore, flow, client)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public pages
	r.Get("/", h.Landing)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
	r.Get("/session", h.Session)
	r.Get("/pricing", h.Pricing)
	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/admin/login", h.AdminLoginPage)

	// Preferences persist locally and need no session.
	r.Get("/preferences", h.Preferences)
	r.Post("/preferences", h.UpdatePreferences)

	// Session-gated pages
	r.Get("/dashboard", h.RequireAuth(h.Dashboard))
	r.Post("/trade", h.RequireAuth(h.Trade))
	r.Post("/select", h.RequireAuth(h.Select))
	r.Get("/chart", h.RequireAuth(h.Chart))
	r.Post("/checkout", h.RequireAuth(h.Checkout))
	r.Get("/payment/callback", h.RequireAuth(h.PaymentCallback))
	r.Get("/payment/verify/{reference}", h.RequireAuth(h.VerifyPayment))
	r.Get("/challenges", h.RequireAuth(h.Challenges))

	// Role-gated pages
	r.Get("/admin", h.Guarded(models.RoleAdmin, h.AdminStats))
	r.Get("/admin/users", h.Guarded(models.RoleAdmin, h.AdminUsers))
	r.Get("/admin/challenges", h.Guarded(models.RoleAdmin, h.AdminChallenges))
	r.Put("/admin/challenges/{id}/status", h.Guarded(models.RoleAdmin, h.UpdateChallengeStatus))
	r.Put("/admin/users/{id}/role", h.Guarded(models.RoleSuperadmin, h.UpdateUserRole))
	r.Put("/admin/paypal", h.Guarded(models.RoleSuperadmin, h.UpdatePayPalSettings))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.UI.Port),
		Handler: r,
	}

	go func() {
		log.Info("UI server listening", zap.Int("port", cfg.UI.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("UI server failed", zap.Error(err))
		}
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
	<-sigchan
	log.Info("Shutdown signal received, stopping...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	log.Info("UI server has been shut down.")
}
