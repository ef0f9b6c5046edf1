package directory

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/example/privacy-dispatch/internal/geo"
	"github.com/example/privacy-dispatch/internal/models"
	"github.com/example/privacy-dispatch/internal/privacy"
)

// SynthConfig controls directory synthesis when no seed file exists:
// Count drivers scattered uniformly within Spread degrees of the center,
// each with a reference-resolution cell and a bootstrap bucket-token set.
type SynthConfig struct {
	Count     int
	CenterLat float64
	CenterLon float64
	Spread    float64
}

// LoadOrSynthesize reads the driver seed file, or generates and persists one
// if it is missing or unreadable. The returned directory is fixed for the
// process lifetime; drivers are never added or removed after bootstrap.
func LoadOrSynthesize(path string, cfg SynthConfig, bucketer *privacy.Bucketer, logger *slog.Logger) (*Memory, error) {
	if raw, err := os.ReadFile(path); err == nil {
		var drivers []models.Driver
		if err := json.Unmarshal(raw, &drivers); err != nil {
			return nil, fmt.Errorf("parse driver seed %s: %w", path, err)
		}
		logger.Info("driver directory loaded", "path", path, "drivers", len(drivers))
		return NewMemory(drivers), nil
	}

	logger.Info("driver seed not found, synthesizing", "path", path, "count", cfg.Count)
	drivers, err := Synthesize(cfg, bucketer)
	if err != nil {
		return nil, err
	}
	if err := persist(path, drivers); err != nil {
		logger.Warn("could not persist synthesized directory", "path", path, "error", err)
	}
	return NewMemory(drivers), nil
}

// Synthesize builds a randomized directory around the configured center.
// Bucket tokens come from the same two-stage derivation orders use, seeded
// from each driver's own cell.
func Synthesize(cfg SynthConfig, bucketer *privacy.Bucketer) ([]models.Driver, error) {
	drivers := make([]models.Driver, 0, cfg.Count)
	for i := 1; i <= cfg.Count; i++ {
		lat := round6(cfg.CenterLat + (rand.Float64()-0.5)*cfg.Spread)
		lon := round6(cfg.CenterLon + (rand.Float64()-0.5)*cfg.Spread)
		cell, err := geo.CellOf(lat, lon, geo.DensityResolution)
		if err != nil {
			return nil, fmt.Errorf("cell for synthesized driver %d: %w", i, err)
		}
		_, tokens := bucketer.Derive(cell)
		drivers = append(drivers, models.Driver{
			ID:           fmt.Sprintf("d-%d", i),
			Loc:          models.Coord{Lat: lat, Lon: lon},
			Cell:         cell,
			BucketTokens: tokens,
			Status:       models.DriverAvailable,
		})
	}
	return drivers, nil
}

func persist(path string, drivers []models.Driver) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(drivers, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
