// Package bootstrap assembles the application dependency graph.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"quotes-backend/internal/admin"
	googleauth "quotes-backend/internal/auth"
	"quotes-backend/internal/calendar"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/scheduler"
	"quotes-backend/internal/shared/config"
	"quotes-backend/internal/shared/server"
	"quotes-backend/internal/shared/server/middleware"
	"quotes-backend/internal/shared/storage/db"
	"quotes-backend/internal/shared/storage/object"
	localstore "quotes-backend/internal/shared/storage/object/local"
	s3store "quotes-backend/internal/shared/storage/object/s3"
	"quotes-backend/internal/uploads"
	"quotes-backend/internal/vendors"
)

const (
	uploadRatePerMinute = 6
	uploadBurst         = 3
)

// App holds the assembled dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	QuotesRepo  quotes.Repo
	VendorsRepo vendors.Repo

	VendorsService *vendors.Service
	QuotesService  *quotes.Service
	UploadService  *uploads.Service
	Scheduler      *scheduler.Scheduler

	UploadHandler *uploads.Handler
	QuoteHandler  *quotes.Handler
	AdminHandler  *admin.Handler
	GoogleAuth    *googleauth.GoogleService
}

// Build prepares dependencies and wires the router.
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

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		GoogleAuth:    app.GoogleAuth,
		UploadHandler: app.UploadHandler,
		QuoteHandler:  app.QuoteHandler,
		AdminHandler:  app.AdminHandler,
		UploadLimiter: middleware.NewUploadLimiter(uploadRatePerMinute, uploadBurst, nil),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var quoteRepo quotes.Repo
	var vendorRepo vendors.Repo
	if app.DB != nil {
		quoteRepo = &quotes.PGRepo{DB: app.DB}
		vendorRepo = &vendors.PGRepo{DB: app.DB}
	} else {
		quoteRepo = quotes.NewMemoryRepo()
		vendorRepo = vendors.NewMemoryRepo()
	}

	vendorSvc := vendors.NewService(vendorRepo, nil, app.Config.CalendarTimezone)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		vendorSvc,
		app.Config.IsAdmin,
	)
	// Delegated token refresh reuses the same OAuth client as the consent flow.
	vendorSvc.OAuth = googleAuthSvc.OAuthConfig()

	calendarClient := calendar.NewGoogleClient()
	sched := scheduler.New(calendarClient)

	uploadSvc := uploads.NewService(quoteRepo, vendorSvc, sched, app.Store)
	quoteSvc := quotes.NewService(quoteRepo, vendorSvc, calendarClient)
	adminSvc := admin.NewService(quoteRepo, vendorRepo)

	app.QuotesRepo = quoteRepo
	app.VendorsRepo = vendorRepo
	app.VendorsService = vendorSvc
	app.QuotesService = quoteSvc
	app.UploadService = uploadSvc
	app.Scheduler = sched
	app.UploadHandler = uploads.NewHandler(uploadSvc)
	app.QuoteHandler = quotes.NewHandler(quoteSvc)
	app.AdminHandler = admin.NewHandler(adminSvc)
	app.GoogleAuth = googleAuthSvc
}
