package signer

import (
	"context"
	"errors"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericborczuk/cloud-asset-manager/common/config"
	"github.com/ericborczuk/cloud-asset-manager/common/logger"
)

// fakePresign records the inputs of the last presign call
type fakePresign struct {
	getErr  error
	postErr error

	lastBucket  string
	lastKey     string
	lastExpires time.Duration
}

func (f *fakePresign) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	opts := &s3.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	f.lastBucket = *params.Bucket
	f.lastKey = *params.Key
	f.lastExpires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.test/" + f.lastBucket + "/" + f.lastKey, Method: "GET"}, nil
}

func (f *fakePresign) PresignPostObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignPostOptions)) (*s3.PresignedPostRequest, error) {
	if f.postErr != nil {
		return nil, f.postErr
	}
	opts := &s3.PresignPostOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	f.lastBucket = *params.Bucket
	f.lastKey = *params.Key
	f.lastExpires = opts.Expires
	return &s3.PresignedPostRequest{
		URL:    "https://s3.test/" + f.lastBucket,
		Values: map[string]string{"key": f.lastKey},
	}, nil
}

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		DefaultBucket:     "test-bucket",
		DefaultExpiration: time.Minute,
		MaxExpiration:     30 * time.Minute,
	}
}

func newTestSigner(fake *fakePresign) *Signer {
	return NewWithClient(fake, testStorageConfig(), logger.New("error", "json"))
}

func TestIssueReadURL(t *testing.T) {
	fake := &fakePresign{}
	s := newTestSigner(fake)

	desc, err := s.Issue(context.Background(), MethodRead, "photo.jpg", "", 0)
	require.NoError(t, err)

	assert.Equal(t, "https://s3.test/test-bucket/photo.jpg", desc.URL)
	assert.Empty(t, desc.Fields)
	// defaults applied
	assert.Equal(t, "test-bucket", fake.lastBucket)
	assert.Equal(t, time.Minute, fake.lastExpires)
}

func TestIssueWriteDescriptor(t *testing.T) {
	fake := &fakePresign{}
	s := newTestSigner(fake)

	desc, err := s.Issue(context.Background(), MethodWrite, "photo.jpg", "other-bucket", 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "https://s3.test/other-bucket", desc.URL)
	assert.Equal(t, "photo.jpg", desc.Fields["key"])
	assert.Equal(t, "other-bucket", fake.lastBucket)
	assert.Equal(t, 5*time.Minute, fake.lastExpires)
}

func TestIssueRequiresObjectKey(t *testing.T) {
	s := newTestSigner(&fakePresign{})

	_, err := s.Issue(context.Background(), MethodWrite, "", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Contains(t, err.Error(), "object_key is required")
}

func TestIssueRejectsExcessiveExpiration(t *testing.T) {
	s := newTestSigner(&fakePresign{})

	_, err := s.Issue(context.Background(), MethodRead, "photo.jpg", "", time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Contains(t, err.Error(), "expiration time was too long")
}

func TestIssueUnsupportedMethod(t *testing.T) {
	s := newTestSigner(&fakePresign{})

	_, err := s.Issue(context.Background(), Method("delete_object"), "photo.jpg", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestIssueWrapsClientFailure(t *testing.T) {
	fake := &fakePresign{getErr: errors.New("credentials expired")}
	s := newTestSigner(fake)

	_, err := s.Issue(context.Background(), MethodRead, "photo.jpg", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSigningFailed)
	assert.Contains(t, err.Error(), "credentials expired")
}
