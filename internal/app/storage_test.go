package app

import (
	"errors"
	"testing"

	"github.com/yungbote/stampcard-backend/internal/data/repos/testutil"
	"github.com/yungbote/stampcard-backend/internal/platform/gcp"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

func TestResolveBucketServiceDisabled(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "disabled")
	bucket, err := resolveBucketService(testutil.Logger(t))
	if err != nil {
		t.Fatalf("resolveBucketService: %v", err)
	}
	if bucket != nil {
		t.Fatalf("expected nil bucket when storage is disabled")
	}
}

func TestResolveBucketServiceInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "s3")
	if _, err := resolveBucketService(testutil.Logger(t)); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}

func TestResolveBucketServiceConnectFailure(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	boom := errors.New("no credentials")
	prev := newBucketServiceWithConfig
	newBucketServiceWithConfig = func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, boom
	}
	t.Cleanup(func() { newBucketServiceWithConfig = prev })

	if _, err := resolveBucketService(testutil.Logger(t)); !errors.Is(err, boom) {
		t.Fatalf("want wrapped connect error, got %v", err)
	}
}
