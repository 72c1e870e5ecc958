package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Selami79/rubber-ds/api"
	"github.com/Selami79/rubber-ds/internal"
	"github.com/Selami79/rubber-ds/internal/auth"
	authPostgres "github.com/Selami79/rubber-ds/internal/auth/postgres"
	"github.com/Selami79/rubber-ds/internal/core/events"
	"github.com/Selami79/rubber-ds/internal/quality"
	qualityPostgres "github.com/Selami79/rubber-ds/internal/quality/postgres"
	"github.com/Selami79/rubber-ds/internal/rawmaterial"
	rawmaterialPostgres "github.com/Selami79/rubber-ds/internal/rawmaterial/postgres"
	"github.com/Selami79/rubber-ds/internal/recipe"
	recipePostgres "github.com/Selami79/rubber-ds/internal/recipe/postgres"
	"github.com/Selami79/rubber-ds/internal/scrap"
	scrapPostgres "github.com/Selami79/rubber-ds/internal/scrap/postgres"
	"github.com/Selami79/rubber-ds/internal/transport/middleware"
	"github.com/Selami79/rubber-ds/internal/transport/rest"
	"github.com/Selami79/rubber-ds/internal/user"
	userPostgres "github.com/Selami79/rubber-ds/internal/user/postgres"
	"github.com/Selami79/rubber-ds/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config *internal.Config
	Gorm   *gorm.DB
	DB     *sqlx.DB
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	}()

	if err := setupRoutes(deps); err != nil {
		return err
	}

	cfg := deps.Config.Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Logger.Info("starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		deps.Logger.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		// let alerts raised by the last requests finish
		return deps.Bus.Drain(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	deps.Logger.Info("server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenDuration)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokens, cfg.Security.BCryptCost, lg)
	userService := user.NewService(userPostgres.NewPostgresRepo(deps.DB), authService, lg)

	rawMaterialService := rawmaterial.NewService(rawmaterialPostgres.NewRawMaterialRepository(deps.Gorm), deps.Bus, lg)
	recipeService := recipe.NewService(recipePostgres.NewRecipeRepository(deps.Gorm), lg)
	accessPolicy := recipe.NewAccessPolicy(recipePostgres.NewAccessLogRepository(deps.Gorm), lg)
	qualityService := quality.NewService(qualityPostgres.NewQualityRepository(deps.Gorm), deps.Bus, lg)
	scrapService := scrap.NewService(
		scrapPostgres.NewScrapRepository(deps.Gorm),
		scrapPostgres.NewReader(deps.DB),
		lg,
	)

	routeDeps := rest.RouteDeps{
		Gate:         auth.NewGate(authService, lg),
		Health:       rest.NewHealthHandler(deps.DB),
		Auth:         auth.NewHandler(authService),
		Users:        user.NewHandler(userService),
		RawMaterial:  rawmaterial.NewHandler(rawMaterialService),
		Recipes:      recipe.NewHandler(recipeService, accessPolicy),
		Quality:      quality.NewHandler(qualityService),
		Scrap:        scrap.NewHandler(scrapService),
		LoginLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst, lg),
		Logger:       lg,
	}

	if cfg.Server.ValidateRequests {
		validator, err := middleware.NewRequestValidator(api.Spec, rest.APIPrefix, lg)
		if err != nil {
			return fmt.Errorf("failed to load API description: %w", err)
		}
		routeDeps.Validator = validator
	}
	if cfg.Observability.Metrics.Enabled {
		routeDeps.MetricsPath = cfg.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, routeDeps)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	gormDB, db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	subscribeAlerts(bus, lg)

	return &Dependencies{
		Config: config,
		Gorm:   gormDB,
		DB:     db,
		Bus:    bus,
		Router: chi.NewRouter(),
		Logger: lg,
	}, nil
}

// subscribeAlerts logs stock and quality alerts raised by the services.
func subscribeAlerts(bus *events.EventBus, lg *slog.Logger) {
	bus.Subscribe(events.EventTypeRawMaterialCritical, func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.RawMaterialCriticalEvent)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.EventType())
		}
		lg.WarnContext(ctx, "raw material at or below critical quantity",
			"event_id", e.EventID(),
			"raw_material_id", e.RawMaterialID,
			"code", e.Code,
			"quantity", e.Quantity,
			"critical_quantity", e.CriticalQuantity,
			"unit", e.Unit)
		return nil
	})

	bus.Subscribe(events.EventTypeQualityTestFailed, func(ctx context.Context, event events.Event) error {
		e, ok := event.(*events.QualityTestFailedEvent)
		if !ok {
			return fmt.Errorf("unexpected payload for %s", event.EventType())
		}
		lg.WarnContext(ctx, "quality test failed",
			"event_id", e.EventID(),
			"test_id", e.TestID,
			"product_id", e.ProductID,
			"batch_number", e.BatchNumber,
			"measurement_type", e.MeasurementType)
		return nil
	})
}

// initDB opens one pgx pool and shares it between gorm and sqlx.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	const driver = "pgx"

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN:        cfg.GetDSN(),
		DriverName: driver,
	}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get db handle: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, driver), nil
}
