package service

import "errors"

var (
	// ErrInvalidRequest indicates malformed or missing caller input
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound indicates the referenced asset id does not exist
	ErrNotFound = errors.New("asset not found")
	// ErrAlreadyComplete indicates an upload was attempted against a finished asset
	ErrAlreadyComplete = errors.New("upload already complete")
	// ErrNotReady indicates access was attempted before the upload completed
	ErrNotReady = errors.New("upload not yet completed")
)
