package matcher

import (
	"testing"

	"github.com/example/privacy-dispatch/internal/models"
)

type fakeDirectory struct{ drivers []models.Driver }

func (f *fakeDirectory) Snapshot() []models.Driver { return f.drivers }

func order(tokens ...string) models.Order {
	return models.Order{OrderID: "o-1", Resolution: 7, BucketTokens: tokens}
}

func driver(id string, tokens ...string) models.Driver {
	return models.Driver{ID: id, Status: models.DriverAvailable, BucketTokens: tokens}
}

func TestRankByIntersection(t *testing.T) {
	dir := &fakeDirectory{drivers: []models.Driver{
		driver("d-1", "A", "D", "E"),
		driver("d-2", "A", "B", "F"),
		driver("d-3", "X", "Y", "Z"),
	}}
	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("A", "B", "C"))

	if len(res.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(res.Candidates))
	}
	if res.Candidates[0].MaskedID != "d-*" || res.Candidates[0].IntersectionCount != 2 {
		t.Fatalf("top candidate = %+v, want d-2 with count 2", res.Candidates[0])
	}
	if res.Candidates[1].IntersectionCount != 1 {
		t.Fatalf("second candidate count = %d, want 1", res.Candidates[1].IntersectionCount)
	}
	if res.Debug.TotalDrivers != 3 || res.Debug.MatchedCount != 2 {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

func TestRankedScenario(t *testing.T) {
	dir := &fakeDirectory{drivers: []models.Driver{
		driver("d-1", "t1", "t2"),
		driver("d-2", "t1"),
		driver("d-3", "t3"),
	}}
	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("t1", "t2"))

	if len(res.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(res.Candidates))
	}
	if res.Candidates[0].IntersectionCount != 2 || res.Candidates[1].IntersectionCount != 1 {
		t.Fatalf("ranking = %d,%d, want 2,1",
			res.Candidates[0].IntersectionCount, res.Candidates[1].IntersectionCount)
	}
}

func TestTiesKeepDirectoryOrder(t *testing.T) {
	dir := &fakeDirectory{drivers: []models.Driver{
		driver("zz-9", "t1"),
		driver("aa-1", "t1"),
	}}
	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("t1"))
	if res.Candidates[0].MaskedID != "zz-*" {
		t.Fatalf("tie broke out of directory order: %+v", res.Candidates)
	}
}

func TestDuplicateTokensCollapse(t *testing.T) {
	dir := &fakeDirectory{drivers: []models.Driver{
		driver("d-1", "t1", "t1", "t1"),
	}}
	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("t1", "t1"))
	if got := res.Candidates[0].IntersectionCount; got != 1 {
		t.Fatalf("intersection = %d, want 1 (sets, not multisets)", got)
	}
}

func TestEmptyDirectory(t *testing.T) {
	s := &Service{Directory: &fakeDirectory{}, Coords: CoordsOmitted}
	res := s.Match(order("t1"))
	if len(res.Candidates) != 0 {
		t.Fatalf("expected empty result, got %+v", res.Candidates)
	}
	if res.Debug.TotalDrivers != 0 {
		t.Fatalf("debug = %+v", res.Debug)
	}
}

func TestDefaultFilterExcludesBusy(t *testing.T) {
	busy := driver("d-1", "t1")
	busy.Status = models.DriverBusy
	dir := &fakeDirectory{drivers: []models.Driver{busy, driver("d-2", "t1")}}
	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("t1"))
	if len(res.Candidates) != 1 || res.Candidates[0].MaskedID != "d-*" {
		t.Fatalf("busy driver not excluded: %+v", res.Candidates)
	}

	s.Filter = AllDrivers
	res = s.Match(order("t1"))
	if len(res.Candidates) != 2 {
		t.Fatalf("AllDrivers filter returned %d candidates, want 2", len(res.Candidates))
	}
}

func TestCoordinateModes(t *testing.T) {
	d := driver("d-1", "t1")
	d.Loc = models.Coord{Lat: 40.001, Lon: 116.331}
	dir := &fakeDirectory{drivers: []models.Driver{d}}

	s := &Service{Directory: dir, Coords: CoordsOmitted}
	res := s.Match(order("t1"))
	if res.Candidates[0].Lat != nil || res.Candidates[0].Lon != nil {
		t.Fatal("omitted mode leaked coordinates")
	}

	s.Coords = CoordsExact
	res = s.Match(order("t1"))
	if res.Candidates[0].Lat == nil || *res.Candidates[0].Lat != 40.001 {
		t.Fatalf("exact mode: %+v", res.Candidates[0])
	}

	s.Coords = CoordsCell
	res = s.Match(order("t1"))
	c := res.Candidates[0]
	if c.Lat == nil || c.Lon == nil {
		t.Fatal("cell mode returned no coordinates")
	}
	if *c.Lat == 40.001 && *c.Lon == 116.331 {
		t.Fatal("cell mode returned exact coordinates")
	}
}

func TestMaskID(t *testing.T) {
	if got := MaskID("d-17"); got != "d-**" {
		t.Fatalf("MaskID = %q, want d-**", got)
	}
	if got := MaskID("driver"); got != "driver" {
		t.Fatalf("MaskID = %q, want unchanged", got)
	}
}
