package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haguru/clinica/config"
	"github.com/haguru/clinica/internal/dataservice"
	"github.com/haguru/clinica/internal/interfaces"
	clinicmetrics "github.com/haguru/clinica/internal/metrics"
	"github.com/haguru/clinica/internal/middleware"
	"github.com/haguru/clinica/internal/models"
	memoryRecordRepo "github.com/haguru/clinica/internal/recordrepo/memory"
	mongoRecordRepo "github.com/haguru/clinica/internal/recordrepo/mongo"
	postgresRecordRepo "github.com/haguru/clinica/internal/recordrepo/postgres"
	"github.com/haguru/clinica/internal/routes"
	"github.com/haguru/clinica/internal/server"
	"github.com/haguru/clinica/pkg/databases/mongo"
	"github.com/haguru/clinica/pkg/databases/postgres"
	"github.com/haguru/clinica/pkg/metrics"
	logger "github.com/haguru/clinica/pkg/zerolog"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const defaultShutdownTimeout = 15 * time.Second

// databaseNames is what the status endpoint reports for each backend.
var databaseNames = map[string]string{
	config.DatabaseTypeMongo:    "MongoDB",
	config.DatabaseTypePostgres: "PostgreSQL",
	config.DatabaseTypeMemory:   "In-memory",
}

// App represents the main application, containing server and configuration.
// It owns the single store connection for the lifetime of the process.
type App struct {
	Server interfaces.Server
	Config *config.ServiceConfig
	Logger interfaces.Logger
	repo   interfaces.RecordRepository
}

// NewApp creates and configures a new App instance.
func NewApp(configPath string, log interfaces.Logger) (*App, error) {
	cfg, err := config.ReadLocalConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Validate the configuration
	validator := structValidator.New()
	if err := validator.Struct(cfg); err != nil {
		var validationErrors structValidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("validation error: %s", validationErrors)
		}
		return nil, fmt.Errorf("validation error: %w", err)
	}

	if log == nil {
		log = logger.NewZerologLogger(cfg.ServiceName)
	}
	log.SetLevel(cfg.LogLevel)

	app := &App{
		Config: cfg,
		Logger: log,
	}

	connEnv, err := config.LoadConnectionEnv()
	if err != nil {
		return nil, err
	}
	dsn, err := connEnv.DSN(cfg.Database.Type)
	if err != nil {
		return nil, err
	}

	metricsInstance := metrics.NewMetrics(cfg.ServiceName)
	clinicmetrics.Register(metricsInstance)

	repo, err := app.initializeRecordRepo(dsn)
	if err != nil {
		return nil, err
	}
	app.repo = repo

	service := dataservice.NewDataService(repo, validator, log, metricsInstance)

	app.Server = server.NewServer(cfg.Host, cfg.Port, log)
	if err := app.initializeRoutes(service, metricsInstance); err != nil {
		_ = repo.Close(context.Background())
		return nil, err
	}

	return app, nil
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts the server down and
// closes the store connection.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received")
	}

	timeout := app.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("Failed to shut down server gracefully", "error", err)
	}
	if err := app.repo.Close(shutdownCtx); err != nil {
		app.Logger.Error("Failed to close database connection", "error", err)
	}
	app.Logger.Info("Server stopped")

	return runErr
}

func (app *App) initializeRoutes(service interfaces.DataService, m interfaces.Metrics) error {
	metricsHandler := promhttp.HandlerFor(
		m.GetRegistry(),
		promhttp.HandlerOpts{})

	tracedMetricsHandler := otelhttp.NewHandler(metricsHandler, routes.MetricsRouteAPI)

	if err := app.Server.Handle(routes.MetricsRouteAPI, tracedMetricsHandler); err != nil {
		return fmt.Errorf("failed to add metrics route: %w", err)
	}
	if err := routes.RegisterAPI(app.Server, service, app.Logger); err != nil {
		return err
	}
	page := routes.NewPageRoute(service, app.Logger, databaseNames[app.Config.Database.Type])
	if err := routes.RegisterPages(app.Server, page); err != nil {
		return err
	}
	routes.RegisterFallbacks(app.Server)

	app.Server.Use(
		middleware.Recovery(app.Logger),
		middleware.RequestID,
		middleware.Logging(app.Logger, m),
	)
	if app.Config.RateLimit.RPS > 0 {
		limiter := rate.NewLimiter(rate.Limit(app.Config.RateLimit.RPS), app.Config.RateLimit.Burst)
		app.Server.Use(middleware.RateLimitMiddleware(limiter, m))
	}
	return nil
}

func (app *App) initializeDBClient(dsn string) (interfaces.DBClient, error) {
	var dbClient interfaces.DBClient
	var err error

	switch app.Config.Database.Type {
	case config.DatabaseTypeMongo:
		dbClient, err = mongo.NewMongoDB(&app.Config.Database.MongoDB, collectionFields(), app.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}

	case config.DatabaseTypePostgres:
		opts := app.Config.Database.Postgres.Options
		dbClient = postgres.NewPostgresDatabaseClient(opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxLifetime, collectionNames())

	default:
		return nil, fmt.Errorf("unsupported database type: %s", app.Config.Database.Type)
	}

	if err = dbClient.Connect(context.Background(), dsn); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", app.Config.Database.Type, err)
	}
	app.Logger.Info("Connected to database", "type", app.Config.Database.Type)

	return dbClient, nil
}

func (app *App) initializeRecordRepo(dsn string) (interfaces.RecordRepository, error) {
	if app.Config.Database.Type == config.DatabaseTypeMemory {
		app.Logger.Warn("Using in-memory store, data is lost on restart")
		return memoryRecordRepo.NewMemoryRecordRepository(), nil
	}

	dbClient, err := app.initializeDBClient(dsn)
	if err != nil {
		return nil, err
	}

	var recordRepo interfaces.RecordRepository
	switch app.Config.Database.Type {
	case config.DatabaseTypeMongo:
		recordRepo, err = mongoRecordRepo.NewMongoRecordRepository(dbClient)
	case config.DatabaseTypePostgres:
		recordRepo, err = postgresRecordRepo.NewPostgresRecordRepository(dbClient)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize record repository: %w", err)
	}

	if err = recordRepo.EnsureIndices(context.Background()); err != nil {
		_ = recordRepo.Close(context.Background())
		return nil, fmt.Errorf("failed to ensure indices: %w", err)
	}

	return recordRepo, nil
}

// collectionFields maps every registered collection to its storable fields.
func collectionFields() map[string][]string {
	fields := map[string][]string{}
	for _, c := range models.Collections() {
		descriptor, _ := models.Lookup(c)
		fields[c.String()] = descriptor.Fields
	}
	return fields
}

func collectionNames() []string {
	names := []string{}
	for _, c := range models.Collections() {
		names = append(names, c.String())
	}
	return names
}
