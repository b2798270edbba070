package archive

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"vortex-go/internal/config"
	"vortex-go/internal/vortex"
)

// NewArchiveFromConfig creates an Archive based on the archive config type.
// Filesystem archives live on fs; lookup supplies S3 credentials.
func NewArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig, fs afero.Fs, lookup vortex.LookupEnvFunc) (vortex.Archive, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryArchive(cfg.Name), nil
	case "s3":
		a, err := NewS3Archive(ctx, cfg.Name, S3Options{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Lookup:   lookup,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		a, err := NewFileSystemArchiveFs(fs, cfg.Name, cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}

// NewArchivesFromConfig creates every configured archive, in order.
func NewArchivesFromConfig(ctx context.Context, cfgs []config.ArchiveConfig, fs afero.Fs, lookup vortex.LookupEnvFunc) ([]vortex.Archive, error) {
	archives := make([]vortex.Archive, 0, len(cfgs))
	for _, c := range cfgs {
		a, err := NewArchiveFromConfig(ctx, c, fs, lookup)
		if err != nil {
			return nil, fmt.Errorf("archive %q: %w", c.Name, err)
		}
		archives = append(archives, a)
	}
	return archives, nil
}
