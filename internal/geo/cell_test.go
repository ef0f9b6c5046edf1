package geo

import (
	"errors"
	"testing"
)

func TestCellOfDeterministic(t *testing.T) {
	a, err := CellOf(40.0, 116.33, 7)
	if err != nil {
		t.Fatalf("CellOf: %v", err)
	}
	for i := 0; i < 10; i++ {
		b, err := CellOf(40.0, 116.33, 7)
		if err != nil {
			t.Fatalf("CellOf: %v", err)
		}
		if b != a {
			t.Fatalf("non-deterministic cell: %s vs %s", a, b)
		}
	}
}

func TestCellOfResolutionsDiffer(t *testing.T) {
	coarse, _ := CellOf(40.0, 116.33, 5)
	fine, _ := CellOf(40.0, 116.33, 9)
	if coarse == fine {
		t.Fatalf("resolutions 5 and 9 produced the same cell %s", coarse)
	}
}

func TestCenterOfRoundTrip(t *testing.T) {
	for _, res := range []int{5, 7, 9} {
		cell, err := CellOf(40.0, 116.33, res)
		if err != nil {
			t.Fatalf("CellOf res=%d: %v", res, err)
		}
		lat, lon, err := CenterOf(cell)
		if err != nil {
			t.Fatalf("CenterOf: %v", err)
		}
		again, err := CellOf(lat, lon, res)
		if err != nil {
			t.Fatalf("CellOf center: %v", err)
		}
		if again != cell {
			t.Fatalf("res=%d: center of %s maps to %s", res, cell, again)
		}
	}
}

func TestCellDistance(t *testing.T) {
	a, _ := CellOf(40.0, 116.33, 9)
	b, _ := CellOf(40.0, 116.33, 9)
	d, err := CellDistance(a, b)
	if err != nil {
		t.Fatalf("CellDistance: %v", err)
	}
	if d != 0 {
		t.Fatalf("distance to self = %d, want 0", d)
	}

	c, _ := CellOf(40.01, 116.35, 9)
	ab, err := CellDistance(a, c)
	if err != nil {
		t.Fatalf("CellDistance: %v", err)
	}
	ba, err := CellDistance(c, a)
	if err != nil {
		t.Fatalf("CellDistance: %v", err)
	}
	if ab != ba {
		t.Fatalf("asymmetric distance: %d vs %d", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("distinct cells at distance %d", ab)
	}
}

func TestInvalidInputs(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		res      int
	}{
		{"lat too high", 91, 0, 7},
		{"lat too low", -91, 0, 7},
		{"lon too high", 0, 181, 7},
		{"lon too low", 0, -181, 7},
		{"resolution negative", 40, 116, -1},
		{"resolution too fine", 40, 116, 16},
	}
	for _, tc := range cases {
		if _, err := CellOf(tc.lat, tc.lon, tc.res); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tc.name, err)
		}
	}
	if _, _, err := CenterOf("not-a-cell"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CenterOf garbage: err = %v, want ErrInvalidInput", err)
	}
	if _, err := CellDistance("junk", "junk"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CellDistance garbage: err = %v, want ErrInvalidInput", err)
	}
}
