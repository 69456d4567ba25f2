package cmd

import (
	"context"
	"time"

	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/influx"
	"github.com/strrl/distcurve/internal/storage"
)

// openStore returns nil when no curve library is configured.
func openStore() (*storage.Store, error) {
	cfg := config.GetStorageConfig()
	if cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}
	return storage.Open(cfg, log)
}

// openInflux returns nil when InfluxDB export is disabled or unreachable.
func openInflux(ctx context.Context) *influx.Client {
	cfg := config.GetInfluxConfig()
	if !cfg.Enabled {
		return nil
	}

	client := influx.NewClient(cfg, log)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("url", cfg.URL).Msg("InfluxDB unavailable, skipping curve export")
		client.Close()
		return nil
	}

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("Exporting curves to InfluxDB")
	return client
}
