// Package matcher ranks drivers against an order by bucket-token
// intersection. It is a pure read over a directory snapshot; nothing here
// mutates order or driver state.
package matcher

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/example/privacy-dispatch/internal/geo"
	"github.com/example/privacy-dispatch/internal/models"
	"github.com/example/privacy-dispatch/internal/observability"
)

// Directory is the minimal read surface the engine needs.
type Directory interface {
	Snapshot() []models.Driver
}

// CoordinateMode controls what, if anything, a match result reveals about a
// candidate's position. Exact coordinates are a deliberate opt-in.
type CoordinateMode string

const (
	CoordsExact   CoordinateMode = "exact"
	CoordsCell    CoordinateMode = "cell"
	CoordsOmitted CoordinateMode = "omitted"
)

func (m CoordinateMode) Valid() bool {
	switch m {
	case CoordsExact, CoordsCell, CoordsOmitted:
		return true
	}
	return false
}

// Filter decides which drivers participate in a scan.
type Filter func(models.Driver) bool

// AvailableOnly excludes matched and busy drivers.
func AvailableOnly(d models.Driver) bool { return d.Status == models.DriverAvailable }

// AllDrivers admits every directory entry regardless of status.
func AllDrivers(models.Driver) bool { return true }

type Service struct {
	Directory Directory
	Filter    Filter
	Coords    CoordinateMode
}

// Match scans one directory snapshot and returns candidates ranked by
// descending intersection count. Ties keep directory order (stable sort).
// An empty directory yields an empty result, not an error.
func (s *Service) Match(order models.Order) models.MatchResult {
	start := time.Now()
	defer func() {
		observability.MatchLatency.Observe(time.Since(start).Seconds())
	}()

	filter := s.Filter
	if filter == nil {
		filter = AvailableOnly
	}

	orderTokens := tokenSet(order.BucketTokens)
	snap := s.Directory.Snapshot()

	type scored struct {
		d     models.Driver
		count int
	}
	scoredList := make([]scored, 0, len(snap))
	for _, d := range snap {
		if !filter(d) {
			continue
		}
		n := intersectionCount(orderTokens, d.BucketTokens)
		if n == 0 {
			continue
		}
		scoredList = append(scoredList, scored{d, n})
	}
	sort.SliceStable(scoredList, func(i, j int) bool { return scoredList[i].count > scoredList[j].count })

	candidates := make([]models.Candidate, 0, len(scoredList))
	for _, sc := range scoredList {
		candidates = append(candidates, s.candidate(sc.d, order.Resolution, sc.count))
	}
	observability.MatchesTotal.Inc()
	return models.MatchResult{
		Candidates: candidates,
		Debug:      models.MatchDebug{TotalDrivers: len(snap), MatchedCount: len(candidates)},
	}
}

func (s *Service) candidate(d models.Driver, resolution, count int) models.Candidate {
	c := models.Candidate{MaskedID: MaskID(d.ID), IntersectionCount: count}
	switch s.Coords {
	case CoordsExact:
		lat, lon := d.Loc.Lat, d.Loc.Lon
		c.Lat, c.Lon = &lat, &lon
	case CoordsOmitted:
		// nothing
	default: // CoordsCell
		if cell, err := geo.CellOf(d.Loc.Lat, d.Loc.Lon, resolution); err == nil {
			if lat, lon, err := geo.CenterOf(cell); err == nil {
				c.Lat, c.Lon = &lat, &lon
			}
		}
	}
	return c
}

// MaskID replaces every digit in a driver id with '*'.
func MaskID(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return '*'
		}
		return r
	}, id)
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// intersectionCount treats both sides as sets; duplicates collapse.
func intersectionCount(order map[string]struct{}, driver []string) int {
	seen := make(map[string]struct{}, len(driver))
	n := 0
	for _, t := range driver {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := order[t]; ok {
			n++
		}
	}
	return n
}
