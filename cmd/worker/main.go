package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging/redis"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/worker"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "booking-worker",
		Short:        "Publishes outbox events and sweeps lapsed subscriptions",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			return run(cmd.Context(), cfg)
		},
	}
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("worker requires the postgres driver, got %q", cfg.Database.Driver)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	repos := postgres.NewRepositories(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, registry)

	broker, err := redis.NewRedisBroker(ctx, cfg.Redis.ToBrokerConfig(), m)
	if err != nil {
		return fmt.Errorf("failed to create Redis broker: %w", err)
	}
	defer broker.Close()

	processor, err := worker.NewOutboxProcessor(repos.Tx, repos.Outbox, broker, cfg.Outbox.ToWorkerConfig(), m)
	if err != nil {
		return fmt.Errorf("failed to create outbox processor: %w", err)
	}

	clk := clock.System{Location: cfg.Scheduling.Location()}
	subscriptions := subscription.NewService(repos, event.NewService(repos.Outbox), clk, m, subscription.Config{
		TrialDays:     cfg.Subscription.TrialDays,
		TrialPlanCode: cfg.Subscription.TrialPlanCode,
		ApprovalDays:  cfg.Subscription.ApprovalDays,
	})
	housekeeper, err := worker.NewHousekeeper(subscriptions, repos.Outbox, cfg.Worker.ToHousekeepingConfig())
	if err != nil {
		return fmt.Errorf("failed to create housekeeper: %w", err)
	}

	srv := healthServer(cfg.Worker.HealthPort, registry, map[string]health.Pinger{
		"database": db,
		"redis":    broker,
	})
	go func() {
		log.Info().Int("port", cfg.Worker.HealthPort).Msg("Starting health server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Health server failed")
			cancel()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		housekeeper.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down...")
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Shutdown(shutdownCtx)
}

func healthServer(port int, gatherer prometheus.Gatherer, checks map[string]health.Pinger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(checks).RegisterRoutes(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
