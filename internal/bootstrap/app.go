package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"docgateway-backend/internal/analysis"
	localanalyzer "docgateway-backend/internal/analysis/local"
	"docgateway-backend/internal/analysis/remote"
	"docgateway-backend/internal/downloads"
	"docgateway-backend/internal/services/health"
	"docgateway-backend/internal/shared/config"
	"docgateway-backend/internal/shared/storage/db"
	"docgateway-backend/internal/shared/storage/object"
	localstore "docgateway-backend/internal/shared/storage/object/local"
	s3store "docgateway-backend/internal/shared/storage/object/s3"
	"docgateway-backend/internal/uploads"
)

// App holds shared dependencies. The router is built separately so tests can
// swap collaborators before routes are registered.
type App struct {
	Config config.Config
	DB     *sql.DB
	Store  object.Store

	UploadsRepo    uploads.Repo
	UploadsService *uploads.Service
	HealthService  *health.Service

	UploadsHandler   *uploads.Handler
	DownloadsHandler *downloads.Handler
}

// Build prepares shared dependencies without wiring routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if app.DB != nil {
		app.UploadsRepo = &uploads.PGRepo{DB: app.DB}
	} else {
		app.UploadsRepo = uploads.NewMemoryRepo()
	}

	app.UploadsService = uploads.NewService(app.Store, analyzer, app.UploadsRepo, cfg.InboundBucket, cfg.OutboundBucket)
	app.HealthService = health.NewService()
	app.UploadsHandler = uploads.NewHandler(app.UploadsService)
	app.DownloadsHandler = downloads.NewHandler(app.Store, cfg.OutboundBucket)

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory upload history")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory upload history: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory upload history: %v", err)
			sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION")
		}
		return s3store.New(ctx, cfg.AWSRegion)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildAnalyzer(cfg config.Config) (analysis.Analyzer, error) {
	if cfg.AnalyzerType == "local" {
		return localanalyzer.New(), nil
	}

	if strings.TrimSpace(cfg.AnalysisEndpoint) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: ANALYSIS_ENDPOINT empty; using local analyzer")
			return localanalyzer.New(), nil
		}
		return nil, fmt.Errorf("ANALYSIS_ENDPOINT is required")
	}

	creds, err := buildCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return remote.NewClient(cfg.AnalysisEndpoint, creds)
}

func buildCredentials(cfg config.Config) (remote.Credentials, error) {
	if strings.TrimSpace(cfg.AnalysisKey) != "" {
		return remote.KeyCredentials(cfg.AnalysisKey)
	}
	if strings.TrimSpace(cfg.TokenURL) != "" {
		return remote.TokenCredentials(cfg.TokenURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes)
	}
	return nil, fmt.Errorf("remote analyzer requires ANALYSIS_KEY or ANALYSIS_TOKEN_URL credentials")
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
