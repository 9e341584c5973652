package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/answer"
	"notes-backend/internal/documents"
	"notes-backend/internal/index"
	"notes-backend/internal/llm"
	"notes-backend/internal/llm/gemini"
	"notes-backend/internal/llm/openai"
	"notes-backend/internal/shared/auth"
	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/server"
	"notes-backend/internal/shared/server/middleware"
	"notes-backend/internal/shared/storage/db"
	"notes-backend/internal/shared/storage/object"
	localstore "notes-backend/internal/shared/storage/object/local"
	s3store "notes-backend/internal/shared/storage/object/s3"
	"notes-backend/internal/shared/telemetry"
	"notes-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Dialect db.Dialect
	Store   object.Store

	UsersService     *users.Service
	DocumentsService *documents.Service
	Index            *index.Index
	AnswerService    *answer.Service
	Gate             *access.Gate
}

// Overrides replaces dependencies that would otherwise be built from config.
type Overrides struct {
	Completer llm.Completer
	Store     object.Store
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWith(context.Background(), cfg, Overrides{})
}

// BuildWith is Build with injected dependencies.
func BuildWith(ctx context.Context, cfg config.Config, ov Overrides) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sqlDB, dialect, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := ov.Store
	if store == nil {
		if store, err = buildStore(ctx, cfg); err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	completer := ov.Completer
	if completer == nil {
		if completer, err = buildCompleter(ctx, cfg); err != nil {
			closeDB(sqlDB)
			return nil, err
		}
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL)
	if err != nil {
		closeDB(sqlDB)
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Dialect: dialect,
		Store:   store,
	}
	buildServices(app, signer, completer)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Gate:            app.Gate,
		UserHandler:     users.NewHandler(app.UsersService, app.Gate),
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		SearchHandler:   index.NewHandler(app.Index),
		AskHandler:      answer.NewHandler(app.AnswerService),
		Limiter:         middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"dialect":      string(dialect),
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLMProvider,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, db.Dialect, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "connect failed", "error": err})
			return nil, "", nil
		}
		return nil, "", err
	}
	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, dialect, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			Bucket:         cfg.S3Bucket,
			Prefix:         cfg.S3Prefix,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
	default:
		return localstore.New(cfg.LocalStoreDir)
	}
}

func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	if cfg.LLMProvider == "none" || strings.TrimSpace(cfg.LLMAPIKey) == "" {
		telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	case "gemini":
		return gemini.NewClient(ctx, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMBaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func buildServices(app *App, signer *auth.Signer, completer llm.Completer) {
	var (
		userRepo users.Repo
		docRepo  documents.Repo
	)
	if app.DB != nil {
		userRepo = &users.SQLRepo{DB: app.DB}
		docRepo = &documents.SQLRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	app.UsersService = users.NewService(userRepo)
	app.Gate = access.NewGate(signer, app.UsersService)
	app.Index = index.New(docRepo)
	app.DocumentsService = &documents.Service{
		Store:          app.Store,
		Repo:           docRepo,
		Index:          app.Index,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}
	app.AnswerService = &answer.Service{
		Index:     app.Index,
		Completer: completer,
		Timeout:   app.Config.LLMTimeout,
	}
}

func closeDB(sqlDB *sql.DB) {
	if sqlDB == nil {
		return
	}
	if err := sqlDB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		telemetry.Warn("bootstrap.db_close_failed", map[string]any{"error": err})
	}
}
