package router

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	authsvc "deedbook-backend/internal/application/auth"
	eventsvc "deedbook-backend/internal/application/events"
	ledgersvc "deedbook-backend/internal/application/ledger"
	regsvc "deedbook-backend/internal/application/registry"
	tokensvc "deedbook-backend/internal/application/tokens"
	txsvc "deedbook-backend/internal/application/transactions"
	"deedbook-backend/internal/config"
	"deedbook-backend/internal/infrastructure/database"
	accthandler "deedbook-backend/internal/interfaces/handlers/accounts"
	authhandler "deedbook-backend/internal/interfaces/handlers/auth"
	eventhandler "deedbook-backend/internal/interfaces/handlers/events"
	healthhandler "deedbook-backend/internal/interfaces/handlers/health"
	payhandler "deedbook-backend/internal/interfaces/handlers/payments"
	reghandler "deedbook-backend/internal/interfaces/handlers/registry"
	txhandler "deedbook-backend/internal/interfaces/handlers/transactions"
	"deedbook-backend/internal/middleware"
	"deedbook-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
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

	// Registered before the session middleware so the raw body survives for
	// signature verification.
	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", func(c *fiber.Ctx) error {
		return stripeWebhook.HandleWebhook(c)
	})

	sessionHandler, redisClient, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redisClient
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	app.Use(func(c *fiber.Ctx) error {
		user := c.Locals("user")
		if user == nil {
			c.Locals("user", nil)
		}
		return c.Next()
	})

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		// Production schema is managed out of band
		if cfg.Env != "production" {
			if errMig := database.AutoMigrate(db); errMig != nil {
				return nil, nil, nil, errMig
			}
		}
		hh.DB = &gormDBPinger{db: db}
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db != nil {
		stripeWebhook.DB = db
	}

	if db != nil && rdb != nil {
		// Registry
		rs := &regsvc.Service{DB: db, ReserveMinimum: cfg.ReserveMinimum}
		rh := &reghandler.Handlers{Service: rs}
		rg := app.Group("/api/v1/registry", middleware.RequireAuth())
		rg.Post("/create-record", middleware.AuthorizePermission(constants.CreateRecord), rh.CreateRecord)
		rg.Post("/list-record", middleware.AuthorizePermission(constants.ListRecord), rh.ListRecord)
		rg.Post("/cancel-listing", middleware.AuthorizePermission(constants.CancelListing), rh.CancelListing)
		rg.Post("/purchase-record", middleware.AuthorizePermission(constants.PurchaseRecord), rh.PurchaseRecord)
		rg.Get("/get-record/:record_id", rh.GetRecordByID)
		rg.Get("/get-all-records", rh.GetAllRecords)
		rg.Get("/get-listed-records", rh.GetListedRecords)
		rg.Get("/get-owner-records", rh.GetOwnerRecords)

		// Accounts (payment ledger + ownership tokens)
		ls := &ledgersvc.Service{DB: db}
		ts := &tokensvc.Service{DB: db}
		acth := &accthandler.Handlers{
			Ledger:        ls,
			Tokens:        ts,
			StripeCreator: &accthandler.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
		}
		ag := app.Group("/api/v1/accounts", middleware.RequireAuth())
		ag.Get("/view-wallet", acth.ViewWallet)
		ag.Post("/mint-token", middleware.AuthorizePermission(constants.MintToken), acth.MintToken)
		ag.Post("/freeze-token", middleware.AuthorizePermission(constants.FreezeToken), acth.FreezeToken)
		ag.Post("/deposit-intent", middleware.AuthorizePermission(constants.DepositFunds), acth.DepositIntent)

		// Transactions
		txs := &txsvc.Service{DB: db}
		txh := &txhandler.Handlers{Service: txs}
		txg := app.Group("/api/v1/transactions", middleware.RequireAuth())
		txg.Get("/get-transactions", txh.GetTransactions)

		// Events
		es := &eventsvc.Service{DB: db}
		eh := &eventhandler.Handlers{Service: es}
		eg := app.Group("/api/v1/events", middleware.RequireAuth())
		eg.Get("/get-record-events/:record_id", eh.GetRecordEvents)
		eg.Get("/get-my-events", eh.GetMyEvents)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
