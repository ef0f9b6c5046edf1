// Package order owns the order table and the lifecycle state machine:
// pending -> accepted -> in_progress -> completed, one step at a time,
// never backward.
package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/privacy-dispatch/internal/directory"
	"github.com/example/privacy-dispatch/internal/dispatch"
	"github.com/example/privacy-dispatch/internal/eta"
	"github.com/example/privacy-dispatch/internal/geo"
	"github.com/example/privacy-dispatch/internal/models"
	"github.com/example/privacy-dispatch/internal/observability"
	"github.com/example/privacy-dispatch/internal/payments"
	"github.com/example/privacy-dispatch/internal/privacy"
	"github.com/example/privacy-dispatch/internal/storage"
)

// FareHold configures the optional payment hold placed when a driver
// accepts. Zero amount disables holds even when a processor is wired.
type FareHold struct {
	Amount   int64
	Currency string
}

// Controller coordinates order creation and lifecycle transitions. Store and
// Directory are required; Archive, Payments and the ETA fields are optional
// collaborators and all of them are best-effort.
type Controller struct {
	Store     *Store
	Directory directory.Directory
	Publisher dispatch.Publisher
	Bucketer  *privacy.Bucketer
	Logger    *slog.Logger

	Archive  storage.OrderArchive
	Payments payments.Processor
	Fare     FareHold

	ETAClient       eta.Client
	ETACache        *eta.Cache
	DefaultSpeedMps float64
}

// Create validates the request, picks a density-adaptive resolution, derives
// fresh bucket tokens and stores the order in pending state. The created
// event is published only after the order is durable in memory.
func (c *Controller) Create(ctx context.Context, req models.CreateOrderRequest) (models.Order, error) {
	if req.OrderID == "" {
		return models.Order{}, fmt.Errorf("%w: missing order_id", ErrInvalidInput)
	}
	if req.RiderID == "" {
		return models.Order{}, fmt.Errorf("%w: missing rider_id", ErrInvalidInput)
	}
	if err := geo.ValidateCoord(req.Lat, req.Lon); err != nil {
		return models.Order{}, err
	}
	if err := geo.ValidateCoord(req.Destination.Lat, req.Destination.Lon); err != nil {
		return models.Order{}, err
	}

	snapshot := c.Directory.Snapshot()
	resolution, err := geo.SelectResolution(req.Lat, req.Lon, snapshot)
	if err != nil {
		return models.Order{}, err
	}
	cellID, err := geo.CellOf(req.Lat, req.Lon, resolution)
	if err != nil {
		return models.Order{}, err
	}
	signatures, tokens := c.Bucketer.Derive(cellID)

	now := time.Now()
	o := models.Order{
		OrderID:      req.OrderID,
		RiderID:      req.RiderID,
		Origin:       models.Coord{Lat: req.Lat, Lon: req.Lon},
		Destination:  req.Destination,
		Resolution:   resolution,
		CellID:       cellID,
		Signatures:   signatures,
		BucketTokens: tokens,
		Status:       models.OrderPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.Store.Create(o); err != nil {
		return models.Order{}, err
	}
	c.archiveSave(&o)
	observability.OrdersCreated.Inc()

	c.publish(dispatch.Event{Type: dispatch.EventOrderCreated, Data: map[string]any{
		"order_id":      o.OrderID,
		"cell_id":       o.CellID,
		"bucket_tokens": o.BucketTokens,
		"resolution":    o.Resolution,
	}})
	c.Logger.Info("order created", "order_id", o.OrderID, "cell", o.CellID, "resolution", o.Resolution)
	return o, nil
}

// Accept handles a driver accept event. Competing accepts for one order
// resolve under the per-order lock: exactly one wins, the rest get
// ErrAlreadyAccepted with no state corrupted.
func (c *Controller) Accept(ctx context.Context, orderID, driverID string) (models.Order, error) {
	if driverID == "" {
		return models.Order{}, fmt.Errorf("%w: missing driver_id", ErrInvalidInput)
	}
	d, ok := c.Directory.Get(driverID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: unknown driver %q", ErrInvalidInput, driverID)
	}

	o, err := c.Store.Update(orderID, func(o *models.Order) error {
		if o.Status.Next() != models.OrderAccepted {
			return ErrAlreadyAccepted
		}
		o.Status = models.OrderAccepted
		o.AssignedDriverID = driverID
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	if err := c.Directory.SetStatus(driverID, models.DriverMatched); err != nil {
		c.Logger.Warn("driver status update failed", "driver_id", driverID, "error", err)
	}
	c.archiveUpdate(&o)
	c.holdFare(ctx, &o)
	observability.OrdersAccepted.Inc()

	c.publish(dispatch.Event{Type: dispatch.EventOrderAccepted, Data: map[string]any{
		"order_id":           o.OrderID,
		"driver_id":          driverID,
		"pickup_eta_seconds": c.pickupETA(d.Loc, o.Origin),
	}})
	// key exchange is between rider and driver only; the controller just
	// fires the starting signal at the accepting driver
	c.publish(dispatch.Event{Type: dispatch.EventInitiateKeyExchange, Target: driverID, Data: map[string]any{
		"order_id": o.OrderID,
	}})
	c.Logger.Info("order accepted", "order_id", o.OrderID, "driver_id", driverID)
	return o, nil
}

// StartTrip moves an accepted order to in_progress once navigation begins.
func (c *Controller) StartTrip(ctx context.Context, orderID string) (models.Order, error) {
	o, err := c.Store.Update(orderID, func(o *models.Order) error {
		if o.Status.Next() != models.OrderInProgress {
			return fmt.Errorf("%w: %s -> in_progress", ErrInvalidTransition, o.Status)
		}
		o.Status = models.OrderInProgress
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	if o.AssignedDriverID != "" {
		if err := c.Directory.SetStatus(o.AssignedDriverID, models.DriverBusy); err != nil {
			c.Logger.Warn("driver status update failed", "driver_id", o.AssignedDriverID, "error", err)
		}
	}
	c.archiveUpdate(&o)
	c.publish(dispatch.Event{Type: dispatch.EventOrderInProgress, Data: map[string]any{"order_id": o.OrderID}})
	return o, nil
}

// Complete finishes the trip, captures any held fare and frees the driver.
func (c *Controller) Complete(ctx context.Context, orderID string) (models.Order, error) {
	o, err := c.Store.Update(orderID, func(o *models.Order) error {
		if o.Status.Next() != models.OrderCompleted {
			return fmt.Errorf("%w: %s -> completed", ErrInvalidTransition, o.Status)
		}
		o.Status = models.OrderCompleted
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}
	if o.AssignedDriverID != "" {
		if err := c.Directory.SetStatus(o.AssignedDriverID, models.DriverAvailable); err != nil {
			c.Logger.Warn("driver status update failed", "driver_id", o.AssignedDriverID, "error", err)
		}
	}
	c.archiveUpdate(&o)
	c.captureFare(ctx, &o)
	observability.TripsCompleted.Inc()
	c.publish(dispatch.Event{Type: dispatch.EventOrderCompleted, Data: map[string]any{"order_id": o.OrderID}})
	c.Logger.Info("order completed", "order_id", o.OrderID)
	return o, nil
}

// Get returns the current order state.
func (c *Controller) Get(orderID string) (models.Order, error) {
	return c.Store.Get(orderID)
}

// Relay forwards an opaque p2p payload to all subscribers without parsing it.
func (c *Controller) Relay(eventType string, payload any) {
	c.publish(dispatch.Event{Type: eventType, Data: payload})
}

func (c *Controller) publish(evt dispatch.Event) {
	if c.Publisher == nil {
		return
	}
	_ = c.Publisher.Publish(evt)
}

func (c *Controller) archiveSave(o *models.Order) {
	if c.Archive == nil {
		return
	}
	if err := c.Archive.SaveOrder(o); err != nil {
		c.Logger.Warn("order archive save failed", "order_id", o.OrderID, "error", err)
	}
}

func (c *Controller) archiveUpdate(o *models.Order) {
	if c.Archive == nil {
		return
	}
	if err := c.Archive.UpdateOrder(o); err != nil {
		c.Logger.Warn("order archive update failed", "order_id", o.OrderID, "error", err)
	}
}

func (c *Controller) holdFare(ctx context.Context, o *models.Order) {
	if c.Payments == nil || c.Fare.Amount <= 0 {
		return
	}
	id, err := c.Payments.Hold(ctx, c.Fare.Amount, c.Fare.Currency, o.RiderID)
	if err != nil {
		c.Logger.Warn("fare hold failed", "order_id", o.OrderID, "error", err)
		return
	}
	_, err = c.Store.Update(o.OrderID, func(o *models.Order) error {
		o.PaymentIntentID = id
		return nil
	})
	if err != nil {
		c.Logger.Warn("recording payment intent failed", "order_id", o.OrderID, "error", err)
	}
}

func (c *Controller) captureFare(ctx context.Context, o *models.Order) {
	if c.Payments == nil || o.PaymentIntentID == "" {
		return
	}
	if err := c.Payments.Capture(ctx, o.PaymentIntentID); err != nil {
		c.Logger.Warn("fare capture failed", "order_id", o.OrderID, "error", err)
	}
}

func (c *Controller) pickupETA(from, to models.Coord) float64 {
	if c.ETACache != nil {
		if v, ok := c.ETACache.Get(from, to); ok {
			return v
		}
	}
	if c.ETAClient != nil {
		if v, err := c.ETAClient.EstimateSeconds(from, to); err == nil {
			if c.ETACache != nil {
				c.ETACache.Set(from, to, v)
			}
			return v
		}
	}
	return eta.EstimateSeconds(from, to, c.DefaultSpeedMps)
}
