package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/models"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/repository"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/service"
	"github.com/ericborczuk/cloud-asset-manager/common/bootstrap"
	"github.com/ericborczuk/cloud-asset-manager/common/config"
	"github.com/ericborczuk/cloud-asset-manager/common/logger"
	"github.com/ericborczuk/cloud-asset-manager/common/signer"
)

// memStore is an in-memory AssetStore for handler tests
type memStore struct {
	assets map[int64]*models.Asset
	nextID int64
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	if asset, ok := m.assets[id]; ok {
		copied := *asset
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetByBucketAndKey(ctx context.Context, bucket, key string) (*models.Asset, error) {
	for _, asset := range m.assets {
		if asset.Bucket == bucket && asset.ObjectKey == key {
			copied := *asset
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	created := *asset
	created.ID = m.nextID
	m.nextID++
	m.assets[created.ID] = &created
	copied := created
	return &copied, nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id int64, status models.UploadedStatus) error {
	if asset, ok := m.assets[id]; ok {
		asset.UploadedStatus = status
	}
	return nil
}

type memRunner struct {
	store *memStore
}

func (r *memRunner) InTx(ctx context.Context, fn func(store repository.AssetStore) error) error {
	return fn(r.store)
}

type stubIssuer struct {
	err error
}

func (s *stubIssuer) Issue(ctx context.Context, method signer.Method, objectKey, bucket string, expiresIn time.Duration) (*signer.Descriptor, error) {
	if s.err != nil {
		return nil, s.err
	}
	desc := &signer.Descriptor{URL: fmt.Sprintf("https://s3.test/%s/%s", bucket, objectKey)}
	if method == signer.MethodWrite {
		desc.Fields = map[string]string{"key": objectKey}
	}
	return desc, nil
}

type handlerEnv struct {
	e       *echo.Echo
	handler *AssetHandler
	store   *memStore
	issuer  *stubIssuer
}

func setupHandler(t *testing.T) *handlerEnv {
	t.Helper()

	log := logger.New("error", "json")
	store := &memStore{assets: make(map[int64]*models.Asset), nextID: 1}
	issuer := &stubIssuer{}
	storage := config.StorageConfig{
		DefaultBucket:     "test-bucket",
		DefaultExpiration: time.Minute,
		MaxExpiration:     30 * time.Minute,
	}

	svc := service.NewAssetService(&memRunner{store: store}, issuer, nil, storage, log)
	components := &bootstrap.Components{Logger: log}

	env := &handlerEnv{
		e:       echo.New(),
		handler: NewAssetHandler(components, svc),
		store:   store,
		issuer:  issuer,
	}
	env.e.POST("/api/upload", env.handler.InitiateUpload)
	env.e.PUT("/api/complete", env.handler.CompleteUpload)
	env.e.GET("/api/access/:asset_id", env.handler.InitiateAccess)
	return env
}

func (env *handlerEnv) request(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	return rec
}

func (env *handlerEnv) seedAsset(status models.UploadedStatus) int64 {
	asset := &models.Asset{
		UploadedStatus: status,
		Bucket:         "test-bucket",
		ObjectKey:      "seeded.bin",
		CreateDate:     time.Now().UTC(),
	}
	created, _ := env.store.Insert(context.Background(), asset)
	return created.ID
}

func TestInitiateUploadEndpoint(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(t, http.MethodPost, "/api/upload", `{"object_key": "abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SignedInfo struct {
			URL    string            `json:"url"`
			Fields map[string]string `json:"fields"`
		} `json:"signed_info"`
		AssetID int64 `json:"asset_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.AssetID)
	assert.Equal(t, "https://s3.test/test-bucket/abc", resp.SignedInfo.URL)
	assert.Equal(t, "abc", resp.SignedInfo.Fields["key"])
}

func TestInitiateUploadEndpointMissingKey(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(t, http.MethodPost, "/api/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "object_key")
}

func TestInitiateUploadEndpointAlreadyComplete(t *testing.T) {
	env := setupHandler(t)
	env.seedAsset(models.StatusComplete)

	rec := env.request(t, http.MethodPost, "/api/upload", `{"object_key": "seeded.bin"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already complete")
}

func TestInitiateUploadEndpointSigningFailure(t *testing.T) {
	env := setupHandler(t)
	env.issuer.err = fmt.Errorf("%w: throttled", signer.ErrSigningFailed)

	rec := env.request(t, http.MethodPost, "/api/upload", `{"object_key": "abc"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCompleteUploadEndpoint(t *testing.T) {
	env := setupHandler(t)
	id := env.seedAsset(models.StatusPending)

	rec := env.request(t, http.MethodPut, "/api/complete",
		fmt.Sprintf(`{"asset_id": %d, "uploaded_status": "complete"}`, id))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success        bool   `json:"success"`
		UploadedStatus string `json:"uploaded_status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "complete", resp.UploadedStatus)
	assert.Equal(t, models.StatusComplete, env.store.assets[id].UploadedStatus)
}

func TestCompleteUploadEndpointNotFound(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(t, http.MethodPut, "/api/complete", `{"asset_id": 999999, "uploaded_status": "complete"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "999999")
}

func TestCompleteUploadEndpointInvalidStatus(t *testing.T) {
	env := setupHandler(t)
	id := env.seedAsset(models.StatusPending)

	rec := env.request(t, http.MethodPut, "/api/complete",
		fmt.Sprintf(`{"asset_id": %d, "uploaded_status": "done"}`, id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "uploaded_status")
}

func TestInitiateAccessEndpoint(t *testing.T) {
	env := setupHandler(t)
	id := env.seedAsset(models.StatusComplete)

	rec := env.request(t, http.MethodGet, fmt.Sprintf("/api/access/%d?expires_in=120", id), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL     string `json:"url"`
		AssetID int64  `json:"asset_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.AssetID)
	assert.Equal(t, "https://s3.test/test-bucket/seeded.bin", resp.URL)
}

func TestInitiateAccessEndpointNotReady(t *testing.T) {
	env := setupHandler(t)
	id := env.seedAsset(models.StatusPending)

	rec := env.request(t, http.MethodGet, fmt.Sprintf("/api/access/%d", id), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not yet completed")
}

func TestInitiateAccessEndpointBadID(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(t, http.MethodGet, "/api/access/notanumber", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "asset_id")
}

func TestInitiateAccessEndpointNotFound(t *testing.T) {
	env := setupHandler(t)

	rec := env.request(t, http.MethodGet, "/api/access/424242", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "424242")
}
