package blob

import (
	"context"
	"fmt"

	"carecensus/internal/infra/blob/fs"
	memorystore "carecensus/internal/infra/blob/memory"
	infraS3 "carecensus/internal/infra/blob/s3"
	"carecensus/internal/platform/config"
)

// Open builds the Store selected by cfg.Driver (fs, s3 or memory).
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return infraS3.New(ctx, infraS3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}
