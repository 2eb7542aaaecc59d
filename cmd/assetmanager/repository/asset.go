package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/models"
)

// assetRepo implements AssetStore over a caller-supplied session
type assetRepo struct {
	db DBTX
}

// NewAssetRepository creates an asset store bound to the given session
func NewAssetRepository(db DBTX) AssetStore {
	return &assetRepo{db: db}
}

func (r *assetRepo) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	query := `
		SELECT id, uploaded_status, bucket, object_key, create_date
		FROM asset
		WHERE id = $1`

	asset := &models.Asset{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.UploadedStatus,
		&asset.Bucket,
		&asset.ObjectKey,
		&asset.CreateDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get asset %d: %w", id, err)
	}

	return asset, nil
}

func (r *assetRepo) GetByBucketAndKey(ctx context.Context, bucket, key string) (*models.Asset, error) {
	query := `
		SELECT id, uploaded_status, bucket, object_key, create_date
		FROM asset
		WHERE bucket = $1 AND object_key = $2`

	asset := &models.Asset{}
	err := r.db.QueryRow(ctx, query, bucket, key).Scan(
		&asset.ID,
		&asset.UploadedStatus,
		&asset.Bucket,
		&asset.ObjectKey,
		&asset.CreateDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get asset %s/%s: %w", bucket, key, err)
	}

	return asset, nil
}

func (r *assetRepo) Insert(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	// DO NOTHING on conflict reports the duplicate as a zero-row result
	// instead of an aborted transaction, so a caller losing an insert
	// race can re-read the winning row in the same session.
	query := `
		INSERT INTO asset (uploaded_status, bucket, object_key, create_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT bucket_object_key_uq DO NOTHING
		RETURNING id, uploaded_status, bucket, object_key, create_date`

	created := &models.Asset{}
	err := r.db.QueryRow(ctx, query,
		asset.UploadedStatus,
		asset.Bucket,
		asset.ObjectKey,
		asset.CreateDate,
	).Scan(
		&created.ID,
		&created.UploadedStatus,
		&created.Bucket,
		&created.ObjectKey,
		&created.CreateDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateKey, asset.Bucket, asset.ObjectKey)
		}
		return nil, fmt.Errorf("failed to insert asset %s/%s: %w", asset.Bucket, asset.ObjectKey, err)
	}

	return created, nil
}

func (r *assetRepo) UpdateStatus(ctx context.Context, id int64, status models.UploadedStatus) error {
	query := `
		UPDATE asset
		SET uploaded_status = $2
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update status of asset %d: %w", id, err)
	}

	return nil
}
