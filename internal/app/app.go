package app

import (
	"net/http"

	"digipay-backend/internal/activity"
	"digipay-backend/internal/admin"
	"digipay-backend/internal/auth"
	"digipay-backend/internal/config"
	"digipay-backend/internal/health"
	"digipay-backend/internal/infrastructure/database"
	"digipay-backend/internal/ipfs"
	"digipay-backend/internal/ledger"
	"digipay-backend/internal/management"
	"digipay-backend/internal/middleware"
	"digipay-backend/internal/orchestrator"
	"digipay-backend/internal/portfolio"
	"digipay-backend/internal/properties"
	"digipay-backend/internal/registry"
	"digipay-backend/internal/trading"
	"digipay-backend/internal/uploads"
	"digipay-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with global middleware and all route
// registration. The returned DB and Redis clients let the caller verify
// connectivity before listening.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &health.Handlers{
		Rdb:            rdb,
		GatewayURL:     cfg.LedgerGatewayURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
	}

	// Ledger plumbing: one shared caller, split into read and write sides.
	caller := &ledger.HTTPCaller{
		BaseURL: cfg.LedgerGatewayURL,
		APIKey:  cfg.LedgerGatewayAPIKey,
	}
	reader := &registry.Reader{Caller: caller, Contract: cfg.ContractAddress}
	writer := &registry.Writer{Caller: caller, Contract: cfg.ContractAddress}
	orch := orchestrator.New(reader, writer)
	pf := &portfolio.Service{Reader: reader}

	if db != nil {
		activitySvc := &activity.Service{DB: db}
		orch.Subscribe(activitySvc.Recorder())

		ach := &activity.Handlers{Service: activitySvc}
		ag := app.Group("/api/v1/activity")
		ag.Get("/", ach.ListActivity)
		ag.Get("/me", ach.MyActivity)

		ah := &auth.Handlers{
			Service: &auth.Service{DB: db},
			Rdb:     rdb,
			Config:  sessionCfg,
		}
		authGroup := app.Group("/api/v1/auth")
		authGroup.Post("/register", ah.Register)
		authGroup.Post("/login", ah.Login)
		authGroup.Get("/me", ah.Me)
		authGroup.Delete("/logout", ah.Logout)
	}

	wh := &wallet.Handlers{Config: sessionCfg}
	wg := app.Group("/api/v1/wallet")
	wg.Post("/connect", wh.Connect)
	wg.Delete("/disconnect", wh.Disconnect)
	wg.Get("/status", wh.Status)

	ph := &properties.Handlers{Reader: reader}
	pg := app.Group("/api/v1/properties")
	pg.Get("/", ph.ListProperties)
	pg.Get("/all", ph.ListAllProperties)
	pg.Get("/count", ph.PropertyCount)
	pg.Get("/:id", ph.GetProperty)

	th := &trading.Handlers{Orchestrator: orch, Reader: reader}
	tg := app.Group("/api/v1/trading")
	tg.Post("/purchase", th.Purchase)
	tg.Post("/sell", th.Sell)
	tg.Post("/transfer", th.Transfer)
	tg.Post("/approval", th.SetApproval)
	tg.Get("/approval/:operator", th.GetApproval)
	tg.Get("/balance/:id", th.ShareBalance)

	mh := &management.Handlers{Orchestrator: orch, Portfolio: pf, Reader: reader}
	mg := app.Group("/api/v1/management")
	mg.Post("/properties", mh.ListProperty)
	mg.Put("/properties/:id", mh.UpdateProperty)
	mg.Patch("/properties/:id/status", mh.SetStatus)
	mg.Patch("/properties/:id/price", mh.UpdatePrice)
	mg.Post("/properties/:id/withdraw", mh.Withdraw)
	mg.Get("/properties", mh.OwnedProperties)
	mg.Get("/properties/:id/balance", mh.EscrowBalance)

	pfh := &portfolio.Handlers{Service: pf}
	app.Get("/api/v1/portfolio", pfh.GetPortfolio)

	adh := &admin.Handlers{Orchestrator: orch, Reader: reader}
	adg := app.Group("/api/v1/admin")
	adg.Post("/pause", adh.Pause)
	adg.Post("/unpause", adh.Unpause)
	adg.Get("/status", adh.ContractStatus)

	pinner := &ipfs.PinataClient{
		APIKey:    cfg.PinataAPIKey,
		SecretKey: cfg.PinataSecretKey,
		Gateway:   cfg.PinataGateway,
	}
	uph := &uploads.Handlers{Pinner: pinner}
	upg := app.Group("/api/v1/uploads", middleware.RequireAuth())
	upg.Post("/property-image", uph.UploadPropertyImage)
	upg.Post("/property-metadata", uph.UploadPropertyMetadata)

	return app, db, rdb, nil
}

// Handler adapts the Fiber app to a net/http handler for serverless hosts.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
