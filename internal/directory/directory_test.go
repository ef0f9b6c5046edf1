package directory

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/privacy-dispatch/internal/models"
	"github.com/example/privacy-dispatch/internal/privacy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSnapshotIsCopy(t *testing.T) {
	m := NewMemory([]models.Driver{
		{ID: "d-1", Status: models.DriverAvailable},
		{ID: "d-2", Status: models.DriverAvailable},
	})
	snap := m.Snapshot()
	snap[0].Status = models.DriverBusy
	if d, _ := m.Get("d-1"); d.Status != models.DriverAvailable {
		t.Fatal("mutating a snapshot leaked into the directory")
	}
}

func TestSnapshotPreservesInsertionOrder(t *testing.T) {
	drivers := []models.Driver{{ID: "z"}, {ID: "a"}, {ID: "m"}}
	m := NewMemory(drivers)
	snap := m.Snapshot()
	for i, d := range drivers {
		if snap[i].ID != d.ID {
			t.Fatalf("snapshot[%d] = %s, want %s", i, snap[i].ID, d.ID)
		}
	}
}

func TestSetStatus(t *testing.T) {
	m := NewMemory([]models.Driver{{ID: "d-1", Status: models.DriverAvailable}})
	if err := m.SetStatus("d-1", models.DriverMatched); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if d, _ := m.Get("d-1"); d.Status != models.DriverMatched {
		t.Fatalf("status = %s, want matched", d.Status)
	}
	if err := m.SetStatus("ghost", models.DriverBusy); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSynthesize(t *testing.T) {
	b := privacy.NewBucketer(3, "demo_secret", 0)
	drivers, err := Synthesize(SynthConfig{Count: 20, CenterLat: 40.0, CenterLon: 116.33, Spread: 0.01}, b)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(drivers) != 20 {
		t.Fatalf("got %d drivers, want 20", len(drivers))
	}
	for _, d := range drivers {
		if len(d.BucketTokens) != 3 {
			t.Fatalf("driver %s has %d tokens, want 3", d.ID, len(d.BucketTokens))
		}
		if d.Cell == "" {
			t.Fatalf("driver %s has no cell", d.ID)
		}
		if d.Status != models.DriverAvailable {
			t.Fatalf("driver %s status = %s, want available", d.ID, d.Status)
		}
		if d.Loc.Lat < 39.99 || d.Loc.Lat > 40.01 || d.Loc.Lon < 116.32 || d.Loc.Lon > 116.34 {
			t.Fatalf("driver %s outside bounding box: %+v", d.ID, d.Loc)
		}
	}
}

func TestLoadOrSynthesizePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data", "drivers.json")
	b := privacy.NewBucketer(3, "demo_secret", 0)
	logger := testLogger()

	first, err := LoadOrSynthesize(path, SynthConfig{Count: 5, CenterLat: 40.0, CenterLon: 116.33, Spread: 0.01}, b, logger)
	if err != nil {
		t.Fatalf("LoadOrSynthesize: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("seed file not persisted: %v", err)
	}

	second, err := LoadOrSynthesize(path, SynthConfig{Count: 99}, b, logger)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second.Len() != first.Len() {
		t.Fatalf("reload produced %d drivers, want %d from file", second.Len(), first.Len())
	}
	a, b1 := first.Snapshot(), second.Snapshot()
	for i := range a {
		if a[i].ID != b1[i].ID || a[i].Cell != b1[i].Cell {
			t.Fatalf("reloaded driver %d differs", i)
		}
	}
}
