package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hbomb79/Grabber/pkg/logger"
)

type JanitorConfig struct {
	// RetentionMinutes is the minimum age of an unfetched file before
	// the janitor will delete it. A value of zero disables the janitor.
	RetentionMinutes int `yaml:"retention_minutes" env:"FILE_RETENTION_MINUTES" env-default:"0" validate:"min=0"`

	// SweepIntervalSeconds is how frequently the janitor will scan
	// the store directory for expired files.
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" env:"SWEEP_INTERVAL_SECONDS" env-default:"300" validate:"min=1"`
}

func (config JanitorConfig) Enabled() bool { return config.RetentionMinutes > 0 }

func (config JanitorConfig) Retention() time.Duration {
	return time.Minute * time.Duration(config.RetentionMinutes)
}

func (config JanitorConfig) SweepInterval() time.Duration {
	return time.Second * time.Duration(config.SweepIntervalSeconds)
}

// Janitor periodically removes temporary files which were produced by a
// download but never fetched. Only files whose names match those produced
// by the store are considered; anything else in the directory is left alone.
type Janitor struct {
	store  *Store
	config JanitorConfig
	now    func() time.Time
}

func NewJanitor(store *Store, config JanitorConfig) *Janitor {
	return &Janitor{store: store, config: config, now: time.Now}
}

// Run sweeps the store directory on the configured interval until the
// context provided is cancelled. If the janitor is disabled, Run returns
// immediately.
func (janitor *Janitor) Run(ctx context.Context) error {
	if !janitor.config.Enabled() {
		log.Emit(logger.DEBUG, "Janitor disabled, unfetched files will be retained indefinitely\n")
		return nil
	}

	ticker := time.NewTicker(janitor.config.SweepInterval())
	defer ticker.Stop()

	log.Emit(logger.INFO, "Janitor sweeping %s every %s (retention %s)\n", janitor.store.Dir(), janitor.config.SweepInterval(), janitor.config.Retention())
	for {
		select {
		case <-ticker.C:
			if _, err := janitor.Sweep(); err != nil {
				log.Emit(logger.WARNING, "Janitor sweep failed: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep performs a single pass over the store directory, deleting every
// store file whose modification time is older than the retention period.
// The number of files deleted is returned.
func (janitor *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(janitor.store.Dir())
	if err != nil {
		return 0, fmt.Errorf("failed to read temp path '%s': %w", janitor.store.Dir(), err)
	}

	cutoff := janitor.now().Add(-janitor.config.Retention())
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		fileID, ext, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := janitor.store.ResolvePath(fileID, ext)
		if err := os.Remove(path); err != nil {
			log.Emit(logger.WARNING, "Janitor failed to remove expired file %s: %v\n", path, err)
			continue
		}

		log.Emit(logger.REMOVE, "Janitor removed expired file %s\n", path)
		removed++
	}

	return removed, nil
}
