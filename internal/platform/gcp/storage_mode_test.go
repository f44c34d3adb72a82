package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnvDisabledByDefault(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("AVATAR_GCS_BUCKET_NAME", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeDisabled || cfg.Enabled() {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeDisabled, cfg.Mode)
	}
	if cfg.ModeSource() != "inferred" {
		t.Fatalf("mode source: got=%q", cfg.ModeSource())
	}
}

func TestResolveObjectStorageConfigFromEnvInfersGCSFromBucket(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("AVATAR_GCS_BUCKET_NAME", "clinic-avatars")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCS, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvInfersEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulatorMode() {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
}

func TestResolveObjectStorageConfigFromEnvInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "s3")

	_, err := ResolveObjectStorageConfigFromEnv()
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ObjectStorageConfigErrorInvalidMode {
		t.Fatalf("want invalid_mode error, got %v", err)
	}
}

func TestResolveObjectStorageConfigFromEnvEmulatorNeedsHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	_, err := ResolveObjectStorageConfigFromEnv()
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ObjectStorageConfigErrorMissingEmulatorHost {
		t.Fatalf("want missing_emulator_host error, got %v", err)
	}
}

func TestNewBucketServiceDisabled(t *testing.T) {
	_, err := NewBucketServiceWithConfig(nil, ObjectStorageConfig{Mode: ObjectStorageModeDisabled})
	if !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("want ErrStorageDisabled, got %v", err)
	}
}
