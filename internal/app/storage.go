package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/stampcard-backend/internal/platform/gcp"
	"github.com/yungbote/stampcard-backend/internal/platform/logger"
)

var newBucketServiceWithConfig = gcp.NewBucketServiceWithConfig

// resolveBucketService returns a nil service when OBJECT_STORAGE_MODE is disabled.
// A misconfigured mode is fatal; avatars and reward images are optional, a broken config is not.
func resolveBucketService(log *logger.Logger) (gcp.BucketService, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		log.Error("Object storage config invalid", "error", err)
		return nil, fmt.Errorf("resolve object storage config: %w", err)
	}
	bucket, err := newBucketServiceWithConfig(log, storageCfg)
	switch {
	case errors.Is(err, gcp.ErrStorageDisabled):
		log.Info("Object storage disabled; member avatars and reward image keys are skipped", "mode", storageCfg.Mode)
		return nil, nil
	case err != nil:
		log.Error("Object storage bootstrap failed", "mode", storageCfg.Mode, "mode_source", storageCfg.ModeSource(), "error", err)
		return nil, fmt.Errorf("init bucket service: %w", err)
	}
	return bucket, nil
}
