package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/models"
	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/repository"
	"github.com/ericborczuk/cloud-asset-manager/common/config"
	"github.com/ericborczuk/cloud-asset-manager/common/logger"
	"github.com/ericborczuk/cloud-asset-manager/common/signer"
)

// URLIssuer is the signing surface the workflows depend on
type URLIssuer interface {
	Issue(ctx context.Context, method signer.Method, objectKey, bucket string, expiresIn time.Duration) (*signer.Descriptor, error)
}

// AssetService runs the asset lifecycle workflows. Each call opens a
// fresh transaction through the TxRunner; the signing call happens
// after the transaction commits, so a signing failure can leave a
// pending record behind. That record is reachable and retryable, since
// re-initiating the same key takes the skip-insert path.
type AssetService struct {
	store   repository.TxRunner
	issuer  URLIssuer
	events  *EventPublisher
	storage config.StorageConfig
	log     *logger.Logger
}

// NewAssetService creates a new asset service
func NewAssetService(store repository.TxRunner, issuer URLIssuer, events *EventPublisher, storage config.StorageConfig, log *logger.Logger) *AssetService {
	return &AssetService{
		store:   store,
		issuer:  issuer,
		events:  events,
		storage: storage,
		log:     log,
	}
}

// UploadResult is the response of InitiateUpload
type UploadResult struct {
	SignedInfo *signer.Descriptor `json:"signed_info"`
	AssetID    int64              `json:"asset_id"`
}

// StatusResult is the response of ChangeStatus
type StatusResult struct {
	Success        bool                  `json:"success"`
	UploadedStatus models.UploadedStatus `json:"uploaded_status"`
}

// AccessResult is the response of InitiateAccess
type AccessResult struct {
	URL     string `json:"url"`
	AssetID int64  `json:"asset_id"`
}

// InitiateUpload finds or creates the ledger record for objectKey under
// the default bucket and issues a write-capable signed descriptor tied
// to it. Re-initiating an in-flight pending upload is idempotent and
// mints a fresh URL; re-initiating a completed upload is rejected.
func (s *AssetService) InitiateUpload(ctx context.Context, objectKey string, expiresIn *int64) (*UploadResult, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("%w: missing key: object_key", ErrInvalidRequest)
	}
	if expiresIn != nil && *expiresIn < 0 {
		return nil, fmt.Errorf("%w: invalid key: expires_in, value %d is not a non-negative integer",
			ErrInvalidRequest, *expiresIn)
	}

	var asset *models.Asset
	err := s.store.InTx(ctx, func(store repository.AssetStore) error {
		var err error
		asset, err = s.findOrCreate(ctx, store, objectKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !asset.IsPending() {
		return nil, fmt.Errorf("%w, try another object_key: %s", ErrAlreadyComplete, objectKey)
	}

	// The record is committed before signing. URLs are never cached:
	// every call mints a fresh descriptor.
	desc, err := s.issuer.Issue(ctx, signer.MethodWrite, asset.ObjectKey, asset.Bucket, s.expiration(expiresIn))
	if err != nil {
		return nil, err
	}

	s.events.UploadInitiated(ctx, asset)

	s.log.WithAssetID(asset.ID).Info("upload initiated",
		"bucket", asset.Bucket,
		"object_key", asset.ObjectKey,
	)

	return &UploadResult{
		SignedInfo: desc,
		AssetID:    asset.ID,
	}, nil
}

// findOrCreate resolves the ledger record for objectKey. Two racing
// initiations for the same unseen key both try to insert; the loser
// observes the conflict and re-reads the winning row. The conflict is
// reported without failing the statement, so the shared transaction
// stays usable for the re-read.
func (s *AssetService) findOrCreate(ctx context.Context, store repository.AssetStore, objectKey string) (*models.Asset, error) {
	asset, err := store.GetByBucketAndKey(ctx, s.storage.DefaultBucket, objectKey)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	candidate := &models.Asset{
		UploadedStatus: models.StatusPending,
		Bucket:         s.storage.DefaultBucket,
		ObjectKey:      objectKey,
		CreateDate:     time.Now().UTC(),
	}

	created, err := store.Insert(ctx, candidate)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, err
	}

	// Lost the insert race; the winning record must exist now
	s.log.Debug("insert race lost, re-reading winning record",
		"bucket", s.storage.DefaultBucket,
		"object_key", objectKey,
	)
	return store.GetByBucketAndKey(ctx, s.storage.DefaultBucket, objectKey)
}

// ChangeStatus moves an asset to a new lifecycle state. The set is
// unconditional after the existence check: complete -> pending is
// permitted.
func (s *AssetService) ChangeStatus(ctx context.Context, assetID int64, rawStatus string) (*StatusResult, error) {
	if assetID <= 0 {
		return nil, fmt.Errorf("%w: missing key: asset_id", ErrInvalidRequest)
	}
	if rawStatus == "" {
		return nil, fmt.Errorf("%w: missing key: uploaded_status", ErrInvalidRequest)
	}

	status, err := models.ParseUploadedStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid key: uploaded_status, %v", ErrInvalidRequest, err)
	}

	err = s.store.InTx(ctx, func(store repository.AssetStore) error {
		if _, err := store.GetByID(ctx, assetID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: asset with id %d not found", ErrNotFound, assetID)
			}
			return err
		}
		return store.UpdateStatus(ctx, assetID, status)
	})
	if err != nil {
		return nil, err
	}

	s.events.StatusChanged(ctx, assetID, status)

	s.log.WithAssetID(assetID).Info("asset status changed", "uploaded_status", status)

	return &StatusResult{
		Success:        true,
		UploadedStatus: status,
	}, nil
}

// InitiateAccess issues a read-capable signed URL for a confirmed
// asset. The URL is scoped to the record's own bucket and key, never a
// caller-supplied location.
func (s *AssetService) InitiateAccess(ctx context.Context, assetID int64, expiresIn *int64) (*AccessResult, error) {
	if assetID <= 0 {
		return nil, fmt.Errorf("%w: missing key: asset_id", ErrInvalidRequest)
	}
	if expiresIn != nil && *expiresIn < 0 {
		return nil, fmt.Errorf("%w: invalid key: expires_in, value %d is not a non-negative integer",
			ErrInvalidRequest, *expiresIn)
	}

	var asset *models.Asset
	err := s.store.InTx(ctx, func(store repository.AssetStore) error {
		var err error
		asset, err = store.GetByID(ctx, assetID)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: asset with id %d not found", ErrNotFound, assetID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if !asset.IsComplete() {
		return nil, fmt.Errorf("%w: asset %d upload is not yet completed", ErrNotReady, assetID)
	}

	desc, err := s.issuer.Issue(ctx, signer.MethodRead, asset.ObjectKey, asset.Bucket, s.expiration(expiresIn))
	if err != nil {
		return nil, err
	}

	s.log.WithAssetID(asset.ID).Info("access initiated",
		"bucket", asset.Bucket,
		"object_key", asset.ObjectKey,
	)

	return &AccessResult{
		URL:     desc.URL,
		AssetID: asset.ID,
	}, nil
}

// expiration converts the optional caller-supplied seconds value.
// Absent or zero selects the signer's configured default.
func (s *AssetService) expiration(expiresIn *int64) time.Duration {
	if expiresIn == nil || *expiresIn == 0 {
		return 0
	}
	return time.Duration(*expiresIn) * time.Second
}
