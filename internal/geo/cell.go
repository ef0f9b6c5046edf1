package geo

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// ErrInvalidInput marks coordinates or resolutions outside the valid range.
// Callers must surface it, not clamp.
var ErrInvalidInput = errors.New("invalid input")

const (
	MinResolution = 0
	MaxResolution = 15
)

// CellOf maps a coordinate to its H3 cell id at the given resolution.
func CellOf(lat, lon float64, resolution int) (string, error) {
	if err := ValidateCoord(lat, lon); err != nil {
		return "", err
	}
	if err := ValidateResolution(resolution); err != nil {
		return "", err
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), resolution)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return cell.String(), nil
}

// CellDistance returns the grid-step distance between two cells. It is
// symmetric and zero iff the cells are equal. Cells at different resolutions
// or too far apart for the underlying index are an error.
func CellDistance(a, b string) (int, error) {
	ca, err := parseCell(a)
	if err != nil {
		return 0, err
	}
	cb, err := parseCell(b)
	if err != nil {
		return 0, err
	}
	d, err := h3.GridDistance(ca, cb)
	if err != nil {
		return 0, fmt.Errorf("%w: grid distance %s..%s: %v", ErrInvalidInput, a, b, err)
	}
	return d, nil
}

// CenterOf maps a cell id back to its representative center point. The
// mapping is lossy on purpose: the center is the only coordinate a cell id
// can reveal.
func CenterOf(cellID string) (lat, lon float64, err error) {
	c, err := parseCell(cellID)
	if err != nil {
		return 0, 0, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: center of %s: %v", ErrInvalidInput, cellID, err)
	}
	return ll.Lat, ll.Lng, nil
}

func ValidateCoord(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinate (%f, %f)", ErrInvalidInput, lat, lon)
	}
	return nil
}

func ValidateResolution(resolution int) error {
	if resolution < MinResolution || resolution > MaxResolution {
		return fmt.Errorf("%w: resolution %d", ErrInvalidInput, resolution)
	}
	return nil
}

func parseCell(s string) (h3.Cell, error) {
	c := h3.Cell(h3.IndexFromString(s))
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: cell id %q", ErrInvalidInput, s)
	}
	return c, nil
}
