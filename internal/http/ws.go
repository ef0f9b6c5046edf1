package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/example/privacy-dispatch/internal/dispatch"
	"github.com/example/privacy-dispatch/internal/observability"
	"github.com/example/privacy-dispatch/internal/order"
)

var upgrader = websocket.Upgrader{}

// wsFrame is the wire shape for inbound client messages. Data stays raw:
// p2p payloads are relayed without inspection.
type wsFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type registerPayload struct {
	Type string `json:"type"` // "rider" or "driver"
	ID   string `json:"id"`
}

type acceptPayload struct {
	OrderID  string `json:"order_id"`
	DriverID string `json:"driver_id"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	key := newID()
	session := s.WSReg.Add(key, conn)
	observability.WSClients.Inc()
	s.logger.Info("ws connected", "session", key)

	go s.readLoop(key, session, conn)
}

func (s *Server) readLoop(key string, session *dispatch.WSSession, conn *websocket.Conn) {
	defer func() {
		s.WSReg.Remove(key)
		observability.WSClients.Dec()
		_ = conn.Close()
		s.logger.Info("ws disconnected", "session", key, "client", session.ClientID)
	}()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		s.dispatchFrame(key, session, frame)
	}
}

func (s *Server) dispatchFrame(key string, session *dispatch.WSSession, frame wsFrame) {
	switch frame.Type {
	case "register":
		var p registerPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil || p.ID == "" {
			s.sendWSError(session, frame.Type, "malformed register payload")
			return
		}
		s.WSReg.Register(key, p.Type, p.ID)

	case "order:accept":
		var p acceptPayload
		if err := json.Unmarshal(frame.Data, &p); err != nil {
			s.sendWSError(session, frame.Type, "malformed accept payload")
			return
		}
		if _, err := s.Orders.Accept(context.Background(), p.OrderID, p.DriverID); err != nil {
			s.sendWSError(session, frame.Type, wsErrorMessage(err))
		}

	case dispatch.EventKeyExchange, dispatch.EventEncryptedCoords:
		// opaque pass-through to all subscribers
		s.Orders.Relay(frame.Type, frame.Data)

	default:
		s.sendWSError(session, frame.Type, "unknown event type")
	}
}

func (s *Server) sendWSError(session *dispatch.WSSession, evtType, msg string) {
	_ = session.Send(dispatch.Event{Type: "error", Data: map[string]string{"event": evtType, "error": msg}})
}

func wsErrorMessage(err error) string {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return "order not found"
	case errors.Is(err, order.ErrAlreadyAccepted):
		return "order already accepted"
	default:
		return err.Error()
	}
}
