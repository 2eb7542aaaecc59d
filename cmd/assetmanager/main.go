package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/container"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/handlers"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/routes"
	"github.com/ericborczuk/cloud-asset-manager/common/bootstrap"
	"github.com/ericborczuk/cloud-asset-manager/common/db"
	"github.com/ericborczuk/cloud-asset-manager/common/middleware"
	"github.com/ericborczuk/cloud-asset-manager/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, queue, telemetry)
	components, err := bootstrap.Setup(ctx, "asset-manager",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return database.Migrate()
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap asset-manager: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e, components)
	registerRoutes(e, serviceContainer)

	// Start with graceful shutdown
	srv := server.New("asset-manager", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/health", func(c echo.Context) error {
		if err := components.DB.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "degraded",
				"service": "asset-manager",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "asset-manager",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	cfg := serviceContainer.Components.Config

	api := e.Group("/api")
	if serviceContainer.RateLimiter != nil {
		api.Use(middleware.GlobalRateLimitMiddleware(
			serviceContainer.RateLimiter,
			cfg.RateLimit.GlobalLimit,
			cfg.RateLimit.WindowSec,
		))
		api.Use(middleware.ClientRateLimitMiddleware(
			serviceContainer.RateLimiter,
			cfg.RateLimit.ClientLimit,
			cfg.RateLimit.WindowSec,
		))
	}

	assetHandler := handlers.NewAssetHandler(serviceContainer.Components, serviceContainer.AssetService)
	routes.RegisterAssetRoutes(api, assetHandler)
}
