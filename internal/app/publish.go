package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/solarb/internal/blob/s3"
	"github.com/alanyoungcy/solarb/internal/catalog"
	"github.com/alanyoungcy/solarb/internal/config"
	"github.com/alanyoungcy/solarb/internal/domain"
)

// PublishCatalog uploads the locally configured asset list (config assets or
// the built-in default) to key in object storage, where a scanner started
// with catalog.s3_key can load it.
func PublishCatalog(ctx context.Context, cfg *config.Config, key string, logger *slog.Logger) error {
	client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       cfg.S3.Endpoint,
		Region:         cfg.S3.Region,
		Bucket:         cfg.S3.Bucket,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		UseSSL:         cfg.S3.UseSSL,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		return fmt.Errorf("app: publish catalog: %w", err)
	}
	return publishCatalog(ctx, cfg.Catalog, s3blob.NewWriter(client), key, logger)
}

func publishCatalog(ctx context.Context, cfg config.CatalogConfig, w domain.BlobWriter, key string, logger *slog.Logger) error {
	cfg.S3Key = ""
	cat, err := catalog.Load(ctx, cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("app: publish catalog: %w", err)
	}
	if err := catalog.Publish(ctx, cat, w, key); err != nil {
		return fmt.Errorf("app: publish catalog: %w", err)
	}
	logger.Info("catalog published",
		slog.String("key", key),
		slog.Int("assets", cat.Len()),
	)
	return nil
}
