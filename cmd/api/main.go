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

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/handler/admin"
	"github.com/jwalitptl/booking-api/internal/handler/doctor"
	"github.com/jwalitptl/booking-api/internal/handler/health"
	"github.com/jwalitptl/booking-api/internal/handler/public"
	"github.com/jwalitptl/booking-api/internal/middleware"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/internal/router"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/booking"
	doctorsvc "github.com/jwalitptl/booking-api/internal/service/doctor"
	"github.com/jwalitptl/booking-api/internal/service/entitlement"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/internal/service/patientfile"
	"github.com/jwalitptl/booking-api/internal/service/plan"
	"github.com/jwalitptl/booking-api/internal/service/subscription"
	"github.com/jwalitptl/booking-api/pkg/auth"
	"github.com/jwalitptl/booking-api/pkg/blobstore"
	"github.com/jwalitptl/booking-api/pkg/clock"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/security"
)

const maxBodySize = 1 << 20

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "booking-api",
		Short:         "Subscription-gated appointment booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedPlansCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

// openRepositories returns the storage selected by database.driver and a
// closer for it. The postgres pool is also returned as a readiness check.
func openRepositories(ctx context.Context, cfg *config.Config) (*repository.Repositories, health.Pinger, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return memory.NewRepositories(), nil, func() {}, nil
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return postgres.NewRepositories(db), db, func() { db.Close() }, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	repos, dbPinger, closeDB, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.Metrics.Namespace, registry)

	loc := cfg.Scheduling.Location()
	clk := clock.System{Location: loc}

	// Initialize services
	events := event.NewService(repos.Outbox)
	plans := plan.NewService(repos.Plans, plan.DefaultCacheConfig())
	subscriptions := subscription.NewService(repos, events, clk, m, subscription.Config{
		TrialDays:     cfg.Subscription.TrialDays,
		TrialPlanCode: cfg.Subscription.TrialPlanCode,
		ApprovalDays:  cfg.Subscription.ApprovalDays,
	})
	entitlements := entitlement.NewService(repos, clk)
	slots := availability.NewService(repos.Doctors, repos.Appointments, loc)
	bookings := booking.NewService(repos, entitlements, events, clk, m, loc)
	blobs := blobstore.NewLocal(cfg.Storage.Root)
	files := patientfile.NewService(repos, entitlements, blobs, clk)
	doctors := doctorsvc.NewService(
		repos,
		subscriptions,
		entitlements,
		security.NewBcryptHasher(cfg.Security.BcryptCost),
		blobs,
		events,
		clk,
	)

	if cfg.Database.Driver == "memory" {
		if _, err := plans.EnsureDefaults(ctx, defaultPlans(cfg.Subscription.TrialPlanCode)); err != nil {
			return fmt.Errorf("failed to seed plans: %w", err)
		}
	}

	if err := middleware.RegisterValidators(middleware.DefaultValidationConfig()); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	checks := map[string]health.Pinger{}
	if dbPinger != nil {
		checks["database"] = dbPinger
	}

	routerCfg := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodySize:    maxBodySize,
		CORSConfig:     middleware.DefaultCORSConfig(cfg.CORS.AllowedOrigins...),
		Metrics:        m,
		Gatherer:       registry,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = rate.Limit(cfg.RateLimit.RequestsPerSecond)
		routerCfg.RateBurst = cfg.RateLimit.Burst
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer)),
		health.NewHandler(checks),
		public.NewHandler(doctors, plans, slots, bookings),
		doctor.NewHandler(doctors, subscriptions, entitlements, bookings, files),
		admin.NewHandler(plans, subscriptions, doctors),
		routerCfg,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("driver", cfg.Database.Driver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited")
	return nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
				applied, err := m.Up(ctx)
				if err != nil {
					return err
				}
				log.Info().Int("applied", applied).Msg("Migrations complete")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *postgres.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range statuses {
					state := "pending"
					if s.Applied && s.AppliedAt != nil {
						state = "applied " + s.AppliedAt.Format(time.RFC3339)
					} else if s.Applied {
						state = "applied"
					}
					fmt.Fprintf(out, "%03d  %-32s %s\n", s.Version, s.Name, state)
				}
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *postgres.Migrator) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations require the postgres driver, got %q", cfg.Database.Driver)
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, postgres.NewMigrator(db))
}

func seedPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Create the trial and default paid plans when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("seeding requires the postgres driver, got %q", cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			plans := plan.NewService(postgres.NewRepositories(db).Plans, plan.DefaultCacheConfig())
			created, err := plans.EnsureDefaults(ctx, defaultPlans(cfg.Subscription.TrialPlanCode))
			if err != nil {
				return err
			}
			log.Info().Int("created", created).Msg("Plans seeded")
			return nil
		},
	}
}

func defaultPlans(trialCode string) []model.CreatePlanRequest {
	return []model.CreatePlanRequest{
		{Code: trialCode, NameEn: "Free Trial", NameAr: "تجربة مجانية", MaxAppointments: 20, MaxStorageMB: 100, Priority: 0},
		{Code: "basic", NameEn: "Basic", NameAr: "أساسي", Price: 99, MaxAppointments: 100, MaxStorageMB: 500, Priority: 1},
		{Code: "pro", NameEn: "Professional", NameAr: "احترافي", Price: 199, MaxAppointments: 300, MaxStorageMB: 2048, Priority: 2},
		{Code: "premium", NameEn: "Premium", NameAr: "مميز", Price: 349, Priority: 3},
	}
}

// tokenCmd signs a bearer token with the configured secret. Login is handled
// by an external identity provider; this exists for local runs.
func tokenCmd() *cobra.Command {
	var (
		role     string
		doctorID string
		subject  string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			claims := auth.Claims{Role: role}
			claims.Subject = subject
			if doctorID != "" {
				id, err := uuid.Parse(doctorID)
				if err != nil {
					return fmt.Errorf("invalid doctor id: %w", err)
				}
				claims.DoctorID = id
				if claims.Subject == "" {
					claims.Subject = id.String()
				}
			}

			token, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer).Sign(claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(model.RoleAdmin), "ADMIN or DOCTOR")
	cmd.Flags().StringVar(&doctorID, "doctor-id", "", "doctor id for DOCTOR tokens")
	cmd.Flags().StringVar(&subject, "subject", "", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
