package s3

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/roastery-portal/pkg/contentstore"
)

func TestS3Backend_BasicConfiguration(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyBucket", func(t *testing.T) {
		_, err := New(ctx, Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("DefaultRegion", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "us-east-1", backend.config.Region)
		assert.Equal(t, "hellers_portal_content.json", backend.objectKey("hellers_portal_content"))
	})

	t.Run("Prefix", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "test-bucket",
			Prefix:          "portal/",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "portal/k.json", backend.objectKey("k"))
	})

	t.Run("MaxBytesRejectedLocally", func(t *testing.T) {
		backend, err := New(ctx, Config{
			Bucket:          "test-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			MaxBytes:        4,
		})
		require.NoError(t, err)
		err = backend.Put(ctx, "k", []byte("too large"))
		assert.ErrorIs(t, err, contentstore.ErrQuotaExceeded)
	})
}

func TestS3Backend_ErrorClassification(t *testing.T) {
	t.Run("NoSuchKey", func(t *testing.T) {
		err := classifyGetError(fmt.Errorf("operation error: %w", &types.NoSuchKey{}))
		assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)
	})

	t.Run("GenericNoSuchKey", func(t *testing.T) {
		err := classifyGetError(&smithy.GenericAPIError{Code: "NoSuchKey"})
		assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)
	})

	t.Run("EntityTooLarge", func(t *testing.T) {
		err := classifyPutError(&smithy.GenericAPIError{Code: "EntityTooLarge", Message: "too big"})
		assert.ErrorIs(t, err, contentstore.ErrQuotaExceeded)
	})

	t.Run("OtherErrors", func(t *testing.T) {
		err := classifyPutError(errors.New("connection refused"))
		assert.NotErrorIs(t, err, contentstore.ErrQuotaExceeded)
		assert.Contains(t, err.Error(), "failed to upload to S3")
	})
}

// TestS3Backend_Integration requires a running MinIO instance or S3 credentials
func TestS3Backend_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	bucket := os.Getenv("AWS_S3_BUCKET")
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		t.Skip("Skipping integration test: S3/MinIO environment variables not set")
	}

	ctx := context.Background()
	backend, err := New(ctx, Config{
		Bucket:                 bucket,
		Prefix:                 fmt.Sprintf("test/%d/", time.Now().UnixNano()),
		AccessKeyID:            accessKey,
		SecretAccessKey:        secretKey,
		Endpoint:               endpoint,
		UsePathStyle:           true,
		CreateBucketIfNotExist: true,
	})
	require.NoError(t, err)

	_, err = backend.Get(ctx, "doc")
	assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)

	require.NoError(t, backend.Put(ctx, "doc", []byte(`{"version":"1.0"}`)))
	got, err := backend.Get(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0"}`, string(got))

	require.NoError(t, backend.Delete(ctx, "doc"))
	_, err = backend.Get(ctx, "doc")
	assert.ErrorIs(t, err, contentstore.ErrBlobNotFound)
}
