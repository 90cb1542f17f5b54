package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fleetpay/topup-gateway/internal/api"
	"github.com/fleetpay/topup-gateway/internal/config"
	"github.com/fleetpay/topup-gateway/internal/fleet"
	"github.com/fleetpay/topup-gateway/internal/logger"
	"github.com/fleetpay/topup-gateway/internal/metrics"
	"github.com/fleetpay/topup-gateway/internal/notify"
	"github.com/fleetpay/topup-gateway/internal/repository/badgerstore"
	"github.com/fleetpay/topup-gateway/internal/scheduler"
	"github.com/fleetpay/topup-gateway/internal/services"
	"github.com/fleetpay/topup-gateway/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := badgerstore.Open(cfg.DataDir)
	if err != nil {
		log.Error("store open", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := badgerstore.NewRepositories(db)

	fleetClient := fleet.NewClient(fleet.Config{
		BaseURL:     cfg.FleetBaseURL,
		ParkID:      cfg.ParkID,
		ClientID:    cfg.ClientID,
		APIKey:      cfg.APIKey,
		Timeout:     cfg.UpstreamTimeout,
		InsecureTLS: cfg.InsecureTLS,
	}, log)

	wp := worker.NewPool(4)
	defer wp.Stop()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != "" {
		notifier = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
	}

	gatewaySvc := services.NewGatewayService(repos.Accounts, repos.Transactions, fleetClient, cfg.CommissionPercent, log)
	syncSvc := services.NewSyncService(repos.Accounts, fleetClient, notifier, wp, log)

	metrics.Init()

	sched := scheduler.New(log)
	sched.Every(ctx, cfg.SyncInterval, "roster-sync", syncSvc.Run)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(cfg, gatewaySvc, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	sched.Wait()
}
