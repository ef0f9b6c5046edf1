package models

import "time"

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DriverStatus tracks a driver's availability. Matching only consults it
// through an injectable filter; the lifecycle controller keeps it current.
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverMatched   DriverStatus = "matched"
	DriverBusy      DriverStatus = "busy"
)

type Driver struct {
	ID           string       `json:"id"`
	Loc          Coord        `json:"loc"`
	Cell         string       `json:"cell"` // cell at the directory reference resolution
	BucketTokens []string     `json:"bucket_tokens"`
	Status       DriverStatus `json:"status"`
}

// OrderStatus values form a strict forward chain; no transition may skip a
// step or move backward.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderAccepted   OrderStatus = "accepted"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

// Next returns the only status reachable from s, or "" at the end of the chain.
func (s OrderStatus) Next() OrderStatus {
	switch s {
	case OrderPending:
		return OrderAccepted
	case OrderAccepted:
		return OrderInProgress
	case OrderInProgress:
		return OrderCompleted
	}
	return ""
}

type Order struct {
	OrderID          string      `json:"order_id"`
	RiderID          string      `json:"rider_id"`
	Origin           Coord       `json:"origin"`
	Destination      Coord       `json:"destination"`
	Resolution       int         `json:"resolution"`
	CellID           string      `json:"cell_id"`
	Signatures       []string    `json:"-"` // never leaves the process
	BucketTokens     []string    `json:"bucket_tokens"`
	Status           OrderStatus `json:"status"`
	AssignedDriverID string      `json:"assigned_driver_id,omitempty"`
	PaymentIntentID  string      `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type CreateOrderRequest struct {
	OrderID     string  `json:"order_id"`
	RiderID     string  `json:"rider_id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Destination Coord   `json:"destination"`
}

// Candidate is one ranked match result. Coordinates are pointers so the
// configured exposure mode can drop them from the payload entirely.
type Candidate struct {
	MaskedID          string   `json:"masked_id"`
	Lat               *float64 `json:"lat,omitempty"`
	Lon               *float64 `json:"lon,omitempty"`
	IntersectionCount int      `json:"intersection_count"`
}

type MatchDebug struct {
	TotalDrivers int `json:"total_drivers"`
	MatchedCount int `json:"matched_count"`
}

type MatchResult struct {
	Candidates []Candidate `json:"candidates"`
	Debug      MatchDebug  `json:"debug"`
}
