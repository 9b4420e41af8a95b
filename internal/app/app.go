package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/sheetlens/internal/config"
	"github.com/templui/sheetlens/internal/db"
	"github.com/templui/sheetlens/internal/middleware"
	"github.com/templui/sheetlens/internal/repository"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/storage"
	"github.com/templui/sheetlens/internal/view"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Storage         storage.Storage
	AuthService     *service.AuthService
	FileService     *service.FileService
	AnalysisService *service.AnalysisService
	AnalysisLimiter *middleware.RateLimiter
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	fileRepository := repository.NewFileRepository(database)
	analysisRepository := repository.NewAnalysisRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry, cfg.IsProduction())
	fileService := service.NewFileService(fileRepository, fileStorage)
	analysisService := service.NewAnalysisService(analysisRepository, fileService, view.SystemClock{}, cfg.HistoryMaxLimit)

	return &App{
		Cfg:             cfg,
		DB:              database,
		Storage:         fileStorage,
		AuthService:     authService,
		FileService:     fileService,
		AnalysisService: analysisService,
		AnalysisLimiter: middleware.NewRateLimiter(cfg.AnalysisRateLimit, cfg.AnalysisRateWindow),
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
