package geo

import (
	"fmt"
	"testing"

	"github.com/example/privacy-dispatch/internal/models"
)

func nearbyDrivers(t *testing.T, n int) []models.Driver {
	t.Helper()
	cell, err := CellOf(40.0, 116.33, DensityResolution)
	if err != nil {
		t.Fatalf("CellOf: %v", err)
	}
	out := make([]models.Driver, n)
	for i := range out {
		out[i] = models.Driver{ID: fmt.Sprintf("d-%d", i+1), Cell: cell}
	}
	return out
}

func TestSelectResolutionThresholds(t *testing.T) {
	cases := []struct {
		density int
		want    int
	}{
		{0, CoarseResolution},
		{10, CoarseResolution},
		{11, ModerateResolution},
		{50, ModerateResolution},
		{51, PreciseResolution},
	}
	for _, tc := range cases {
		got, err := SelectResolution(40.0, 116.33, nearbyDrivers(t, tc.density))
		if err != nil {
			t.Fatalf("density=%d: %v", tc.density, err)
		}
		if got != tc.want {
			t.Errorf("density=%d: resolution = %d, want %d", tc.density, got, tc.want)
		}
	}
}

func TestSelectResolutionIgnoresFarDrivers(t *testing.T) {
	// drivers well outside the density radius must not count
	farCell, err := CellOf(41.0, 117.5, DensityResolution)
	if err != nil {
		t.Fatalf("CellOf: %v", err)
	}
	drivers := make([]models.Driver, 60)
	for i := range drivers {
		drivers[i] = models.Driver{ID: fmt.Sprintf("far-%d", i), Cell: farCell}
	}
	got, err := SelectResolution(40.0, 116.33, drivers)
	if err != nil {
		t.Fatalf("SelectResolution: %v", err)
	}
	if got != CoarseResolution {
		t.Fatalf("resolution = %d, want coarse %d", got, CoarseResolution)
	}
}

func TestSelectResolutionInvalidPoint(t *testing.T) {
	if _, err := SelectResolution(95, 0, nil); err == nil {
		t.Fatal("expected error for out-of-range latitude")
	}
}
