package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/service"
	"github.com/ericborczuk/cloud-asset-manager/common/bootstrap"
	"github.com/ericborczuk/cloud-asset-manager/common/signer"
)

// AssetHandler handles asset lifecycle operations
type AssetHandler struct {
	components *bootstrap.Components
	assetSvc   *service.AssetService
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(components *bootstrap.Components, assetSvc *service.AssetService) *AssetHandler {
	return &AssetHandler{
		components: components,
		assetSvc:   assetSvc,
	}
}

type uploadRequest struct {
	ObjectKey string `json:"object_key"`
	ExpiresIn *int64 `json:"expires_in"`
}

type completeRequest struct {
	AssetID        *int64 `json:"asset_id"`
	UploadedStatus string `json:"uploaded_status"`
}

// InitiateUpload reserves an asset record and issues a write-capable signed URL
// POST /api/upload
func (h *AssetHandler) InitiateUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.assetSvc.InitiateUpload(c.Request().Context(), req.ObjectKey, req.ExpiresIn)
	if err != nil {
		return h.mapError(c, "initiate_upload", err)
	}

	return c.JSON(http.StatusOK, result)
}

// CompleteUpload transitions an asset to a new upload status
// PUT /api/complete
func (h *AssetHandler) CompleteUpload(c echo.Context) error {
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var assetID int64
	if req.AssetID != nil {
		assetID = *req.AssetID
	}

	result, err := h.assetSvc.ChangeStatus(c.Request().Context(), assetID, req.UploadedStatus)
	if err != nil {
		return h.mapError(c, "change_status", err)
	}

	return c.JSON(http.StatusOK, result)
}

// InitiateAccess issues a read-capable signed URL for a completed asset
// GET /api/access/:asset_id
func (h *AssetHandler) InitiateAccess(c echo.Context) error {
	assetID, err := strconv.ParseInt(c.Param("asset_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest,
			"invalid key: asset_id, value "+c.Param("asset_id")+" is not an int")
	}

	var expiresIn *int64
	if raw := c.QueryParam("expires_in"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				"invalid key: expires_in, value "+raw+" is not an int")
		}
		expiresIn = &parsed
	}

	result, err := h.assetSvc.InitiateAccess(c.Request().Context(), assetID, expiresIn)
	if err != nil {
		return h.mapError(c, "initiate_access", err)
	}

	return c.JSON(http.StatusOK, result)
}

// mapError converts typed workflow failures into HTTP status codes so
// callers can distinguish "fix your request" from "try again later"
func (h *AssetHandler) mapError(c echo.Context, operation string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, signer.ErrInvalidArguments):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyComplete), errors.Is(err, service.ErrNotReady):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, signer.ErrSigningFailed), errors.Is(err, signer.ErrUnsupportedMethod):
		h.components.Logger.Error("signing failure", "operation", operation, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to generate signed URL")
	default:
		h.components.Logger.Error("unexpected failure", "operation", operation, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
