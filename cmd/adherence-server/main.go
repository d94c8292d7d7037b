package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medtrack/adherence/internal/config"
	"github.com/medtrack/adherence/internal/domain/alert"
	"github.com/medtrack/adherence/internal/domain/caregiver"
	"github.com/medtrack/adherence/internal/domain/doselog"
	"github.com/medtrack/adherence/internal/domain/education"
	"github.com/medtrack/adherence/internal/domain/medication"
	"github.com/medtrack/adherence/internal/platform/auth"
	"github.com/medtrack/adherence/internal/platform/db"
	"github.com/medtrack/adherence/internal/platform/middleware"
	"github.com/medtrack/adherence/internal/platform/notification"
)

// ConnectionSourceAdapter adapts the caregiver service to the sweeper's
// ConnectionSource interface, avoiding circular imports between the doselog
// and caregiver packages.
type ConnectionSourceAdapter struct {
	svc *caregiver.Service
}

func (a *ConnectionSourceAdapter) ListNotifiable(ctx context.Context, patientID uuid.UUID) ([]doselog.CaregiverContact, error) {
	conns, err := a.svc.ListNotifiable(ctx, patientID)
	if err != nil {
		return nil, err
	}
	contacts := make([]doselog.CaregiverContact, 0, len(conns))
	for _, c := range conns {
		contacts = append(contacts, doselog.CaregiverContact{
			CaregiverID: c.CaregiverID,
			DeviceKey:   c.DeviceKey,
		})
	}
	return contacts, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "adherence-server",
		Short: "Medication adherence API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state, applied := "pending", "-"
				if s.Applied {
					state = "applied"
				}
				if s.AppliedAt != nil {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, applied)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// sweepCmd runs one missed-dose sweep and exits. Useful for cron outside the
// server process and for operational catch-up after downtime.
func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue pending doses as missed and alert caregivers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg)
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			sweeper := buildSweeper(cfg, pool, logger)
			n, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Marked %d dose(s) as missed.\n", n)
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func newPusher(cfg *config.Config, logger zerolog.Logger) notification.Pusher {
	if cfg.PushoverAppToken != "" {
		return notification.NewPushoverPusher(cfg.PushoverAppToken)
	}
	logger.Warn().Msg("PUSHOVER_APP_TOKEN not set; push notifications are logged only")
	return notification.NewLogPusher(logger)
}

func buildSweeper(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) *doselog.Sweeper {
	logRepo := doselog.NewRepoPG(pool)
	caregiverSvc := caregiver.NewService(caregiver.NewRepoPG(pool))
	alertSvc := alert.NewService(alert.NewRepoPG(pool))
	pusher := newPusher(cfg, logger)
	return doselog.NewSweeper(logRepo, &ConnectionSourceAdapter{svc: caregiverSvc}, alertSvc, pusher, cfg.MissedAfter, logger)
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	// Repositories
	medRepo := medication.NewMedicationRepoPG(pool)
	schedRepo := medication.NewScheduleRepoPG(pool)
	logRepo := doselog.NewRepoPG(pool)
	connRepo := caregiver.NewRepoPG(pool)
	alertRepo := alert.NewRepoPG(pool)
	eduRepo := education.NewRepoPG(pool)

	// Services
	medSvc := medication.NewService(medRepo, schedRepo)
	caregiverSvc := caregiver.NewService(connRepo)
	alertSvc := alert.NewService(alertRepo)
	eduSvc := education.NewService(eduRepo)

	materializer := doselog.NewMaterializer(medSvc, logRepo, loc, cfg.ImminentWindow, logger)
	logSvc := doselog.NewService(logRepo, materializer, loc)

	pusher := newPusher(cfg, logger)
	sweeper := doselog.NewSweeper(logRepo, &ConnectionSourceAdapter{svc: caregiverSvc}, alertSvc, pusher, cfg.MissedAfter, logger)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	if cfg.IsDev() {
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthDevSecret),
		}))
	}

	medication.NewHandler(medSvc, caregiverSvc).RegisterRoutes(api)
	doselog.NewHandler(logSvc, caregiverSvc, cfg.UpcomingLimit).RegisterRoutes(api)
	caregiver.NewHandler(caregiverSvc).RegisterRoutes(api)
	alert.NewHandler(alertSvc).RegisterRoutes(api)
	education.NewHandler(eduSvc).RegisterRoutes(api)

	// In-process missed-dose sweeper.
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.SweepInterval), func() {
		sweeper.Run(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule sweeper: %w", err)
	}
	c.Start()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
