package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/handlers"
)

// RegisterAssetRoutes registers the asset lifecycle routes
func RegisterAssetRoutes(g *echo.Group, handler *handlers.AssetHandler) {
	// POST /api/upload - reserve an asset and get a write-capable signed URL
	g.POST("/upload", handler.InitiateUpload)
	// PUT /api/complete - confirm (or revert) an upload
	g.PUT("/complete", handler.CompleteUpload)
	// GET /api/access/:asset_id - get a read-capable signed URL
	g.GET("/access/:asset_id", handler.InitiateAccess)
}
