package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/models"
	"github.com/ericborczuk/cloud-asset-manager/common/db"
)

var (
	// ErrNotFound indicates the requested asset does not exist
	ErrNotFound = errors.New("asset not found")
	// ErrDuplicateKey indicates the (bucket, object_key) uniqueness
	// constraint rejected an insert
	ErrDuplicateKey = errors.New("duplicate bucket and object key")
)

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx.
// Repositories are constructed over whichever session the caller owns.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AssetStore handles ledger operations for asset records
type AssetStore interface {
	// GetByID returns the asset with the given id, or ErrNotFound
	GetByID(ctx context.Context, id int64) (*models.Asset, error)
	// GetByBucketAndKey returns the asset stored under (bucket, key), or ErrNotFound
	GetByBucketAndKey(ctx context.Context, bucket, key string) (*models.Asset, error)
	// Insert creates a new record, ignoring any id on the candidate.
	// Returns ErrDuplicateKey when (bucket, object_key) already exists;
	// the conflict does not fail the surrounding transaction.
	Insert(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	// UpdateStatus unconditionally sets the status for the given id.
	// Existence is not checked here; callers confirm it first.
	UpdateStatus(ctx context.Context, id int64, status models.UploadedStatus) error
}

// TxRunner invokes a function against a store bound to a single
// database transaction. Each workflow call gets a fresh transaction;
// no record state is shared across requests outside the database.
type TxRunner interface {
	InTx(ctx context.Context, fn func(store AssetStore) error) error
}

type pgxTxRunner struct {
	db *db.DB
}

// NewTxRunner creates a TxRunner over the connection pool
func NewTxRunner(database *db.DB) TxRunner {
	return &pgxTxRunner{db: database}
}

func (r *pgxTxRunner) InTx(ctx context.Context, fn func(store AssetStore) error) error {
	return pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		return fn(NewAssetRepository(tx))
	})
}
