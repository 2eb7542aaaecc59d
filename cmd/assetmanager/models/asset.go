package models

import (
	"fmt"
	"time"
)

// UploadedStatus represents the lifecycle state of an asset upload
type UploadedStatus string

const (
	// StatusPending means the upload was initiated but not confirmed
	StatusPending UploadedStatus = "pending"
	// StatusComplete means the client confirmed the upload finished
	StatusComplete UploadedStatus = "complete"
)

// ParseUploadedStatus converts a raw string into a valid status.
// Anything outside the two lifecycle states is rejected.
func ParseUploadedStatus(raw string) (UploadedStatus, error) {
	switch UploadedStatus(raw) {
	case StatusPending:
		return StatusPending, nil
	case StatusComplete:
		return StatusComplete, nil
	default:
		return "", fmt.Errorf("value %q is not one of [%s %s]", raw, StatusPending, StatusComplete)
	}
}

// Asset represents an entry in the asset ledger
// Maps to: asset table
type Asset struct {
	// Store-assigned identifier, immutable after insert
	ID int64 `db:"id" json:"asset_id"`

	// Upload lifecycle state: 'pending' or 'complete'
	UploadedStatus UploadedStatus `db:"uploaded_status" json:"uploaded_status"`

	// Object store container holding the asset bytes
	Bucket string `db:"bucket" json:"bucket"`

	// Object name within the bucket; (bucket, object_key) is unique
	ObjectKey string `db:"object_key" json:"object_key"`

	// Insert timestamp, immutable
	CreateDate time.Time `db:"create_date" json:"create_date"`
}

// IsComplete checks whether the upload has been confirmed
func (a *Asset) IsComplete() bool {
	return a.UploadedStatus == StatusComplete
}

// IsPending checks whether the upload is still in flight
func (a *Asset) IsPending() bool {
	return a.UploadedStatus == StatusPending
}
