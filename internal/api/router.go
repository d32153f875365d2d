package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/accesssync/internal/database"
)

type Dependencies struct {
	Sync     handler.SyncController
	Requests handler.RequestLister
	Workers  handler.WorkerReader
	DB       database.Pinger // nil with the memory store
	APIToken string
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "accesssync",
		DisableStartupMessage: true,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var db database.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")
	v1.Use(middleware.Auth(r.deps.APIToken))

	if r.deps.Sync != nil {
		syncHandler := handler.NewSyncHandler(r.deps.Sync, r.logger)
		v1.Get("/status", syncHandler.Status)
		v1.Post("/sync", syncHandler.Trigger)
	}

	if r.deps.Requests != nil {
		v1.Get("/requests", handler.NewRequestsHandler(r.deps.Requests).List)
	}

	if r.deps.Workers != nil {
		workersHandler := handler.NewWorkersHandler(r.deps.Workers)
		v1.Get("/workers", workersHandler.List)
		v1.Get("/workers/:national_id", workersHandler.Get)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}
