package signer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ericborczuk/cloud-asset-manager/common/config"
	"github.com/ericborczuk/cloud-asset-manager/common/logger"
)

// Method identifies the object store operation a signed URL grants
type Method string

const (
	// MethodRead grants a one-shot object download
	MethodRead Method = "get_object"
	// MethodWrite grants a one-shot object upload (presigned POST)
	MethodWrite Method = "post_object"
)

var (
	// ErrInvalidArguments indicates unusable signing parameters
	ErrInvalidArguments = errors.New("invalid signing arguments")
	// ErrUnsupportedMethod indicates an unrecognized signing method
	ErrUnsupportedMethod = errors.New("unsupported signing method")
	// ErrSigningFailed indicates the object store rejected the signing call
	ErrSigningFailed = errors.New("signing failed")
)

// Descriptor is the result of a signing call.
// For MethodRead only URL is set. For MethodWrite the Fields map carries
// the form values the store requires to accept the upload.
type Descriptor struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields,omitempty"`
}

// PresignAPI is the subset of the S3 presign client the signer uses
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPostObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error)
}

// Signer issues time-limited, capability-scoped URLs for the object store.
// It holds no state beyond the client and its configured bounds.
type Signer struct {
	presign PresignAPI
	storage config.StorageConfig
	log     *logger.Logger
}

// New creates a signer backed by the default AWS credential chain
func New(ctx context.Context, storage config.StorageConfig, log *logger.Logger) (*Signer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return NewWithClient(s3.NewPresignClient(client), storage, log), nil
}

// NewWithClient creates a signer over an existing presign client
func NewWithClient(presign PresignAPI, storage config.StorageConfig, log *logger.Logger) *Signer {
	return &Signer{
		presign: presign,
		storage: storage,
		log:     log,
	}
}

// Issue creates a signed URL for the given method, object key and bucket.
// An empty bucket selects the configured default bucket; a zero expiration
// selects the configured default. Expirations above the configured ceiling
// are rejected.
func (s *Signer) Issue(ctx context.Context, method Method, objectKey, bucket string, expiresIn time.Duration) (*Descriptor, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("%w: could not create a signed URL for %s request: object_key is required",
			ErrInvalidArguments, method)
	}
	if expiresIn > s.storage.MaxExpiration {
		return nil, fmt.Errorf("%w: could not create a signed URL for %s request: expiration time was too long, try a shorter duration",
			ErrInvalidArguments, method)
	}
	if bucket == "" {
		bucket = s.storage.DefaultBucket
	}
	if expiresIn <= 0 {
		expiresIn = s.storage.DefaultExpiration
	}

	switch method {
	case MethodRead:
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectKey),
		}, func(o *s3.PresignOptions) {
			o.Expires = expiresIn
		})
		if err != nil {
			s.log.Error("presign get_object failed", "bucket", bucket, "object_key", objectKey, "error", err)
			return nil, fmt.Errorf("%w: get_object for key %s: %v", ErrSigningFailed, objectKey, err)
		}

		s.log.Debug("issued read URL", "bucket", bucket, "object_key", objectKey, "expires_in", expiresIn)
		return &Descriptor{URL: req.URL}, nil

	case MethodWrite:
		req, err := s.presign.PresignPostObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(objectKey),
		}, func(o *s3.PresignPostOptions) {
			o.Expires = expiresIn
		})
		if err != nil {
			s.log.Error("presign post_object failed", "bucket", bucket, "object_key", objectKey, "error", err)
			return nil, fmt.Errorf("%w: post_object for key %s: %v", ErrSigningFailed, objectKey, err)
		}

		s.log.Debug("issued write URL", "bucket", bucket, "object_key", objectKey, "expires_in", expiresIn)
		return &Descriptor{URL: req.URL, Fields: req.Values}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}
