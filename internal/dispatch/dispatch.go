// Package dispatch fans order lifecycle events out to subscribers. The core
// treats publication as fire-and-forget: state is committed in memory before
// any publisher runs, and a failed delivery never rolls a transition back.
package dispatch

import (
	"log/slog"

	"github.com/example/privacy-dispatch/internal/observability"
)

// Event types on the wire. p2p payloads are opaque; the core relays them
// without parsing.
const (
	EventOrderCreated        = "order:created"
	EventOrderAccepted       = "order:accepted"
	EventOrderInProgress     = "order:in_progress"
	EventOrderCompleted      = "order:completed"
	EventInitiateKeyExchange = "p2p:initiateKeyExchange"
	EventKeyExchange         = "p2p:keyExchange"
	EventEncryptedCoords     = "p2p:encryptedCoords"
)

// Event is one fan-out unit. An empty Target broadcasts to every subscriber;
// a non-empty Target addresses the single registered client with that id.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"-"`
	Data   any    `json:"data"`
}

// Publisher is the single capability the core needs from the transport.
type Publisher interface {
	Publish(evt Event) error
}

// Fanout forwards each event to every configured publisher, best-effort.
type Fanout []Publisher

func (f Fanout) Publish(evt Event) error {
	observability.EventsPublished.WithLabelValues(evt.Type).Inc()
	for _, p := range f {
		_ = p.Publish(evt)
	}
	return nil
}

// LogPublisher records events to the structured log. Useful standalone in
// demos and as a tap alongside real transports.
type LogPublisher struct {
	Logger *slog.Logger
}

func (l *LogPublisher) Publish(evt Event) error {
	l.Logger.Info("event", "type", evt.Type, "target", evt.Target)
	return nil
}
