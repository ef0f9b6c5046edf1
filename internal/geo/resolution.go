package geo

import "github.com/example/privacy-dispatch/internal/models"

// Resolution selection trades matching precision against location privacy:
// fine cells are only safe where enough drivers provide crowd cover, so
// sparse areas get deliberately coarse cells.
const (
	// DensityResolution is the fixed reference resolution for density
	// queries; driver directory cells are stored at this resolution.
	DensityResolution = 9

	// DensityRadiusCells bounds the grid distance a driver may be from the
	// reference cell and still count toward local density.
	DensityRadiusCells = 3

	denseThreshold  = 50 // more drivers than this -> precise cells
	sparseThreshold = 10 // more than this -> moderate, otherwise coarse

	PreciseResolution  = 9
	ModerateResolution = 7
	CoarseResolution   = 5
)

// SelectResolution picks the cell resolution for an order placed at the
// given point. It must be evaluated against a fresh directory snapshot for
// every order; density changes as drivers come and go.
func SelectResolution(lat, lon float64, drivers []models.Driver) (int, error) {
	ref, err := CellOf(lat, lon, DensityResolution)
	if err != nil {
		return 0, err
	}
	density := 0
	for _, d := range drivers {
		dist, err := CellDistance(ref, d.Cell)
		if err != nil {
			// unreachable under the grid metric means not nearby
			continue
		}
		if dist <= DensityRadiusCells {
			density++
		}
	}
	switch {
	case density > denseThreshold:
		return PreciseResolution, nil
	case density > sparseThreshold:
		return ModerateResolution, nil
	default:
		return CoarseResolution, nil
	}
}
