package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession is one connected client. Writes are serialized per connection;
// gorilla/websocket allows only one concurrent writer.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex

	// set by the register handshake
	ClientType string
	ClientID   string
}

func (s *WSSession) Send(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(evt)
}

// WSRegistry holds connected rider and driver sessions keyed by an opaque
// session key, with a secondary index by registered client id for targeted
// delivery.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	byClient map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{
		sessions: make(map[string]*WSSession),
		byClient: make(map[string]*WSSession),
		logger:   logger,
	}
}

func (r *WSRegistry) Add(sessionKey string, conn *websocket.Conn) *WSSession {
	s := &WSSession{conn: conn}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionKey] = s
	return s
}

// Register binds a session to a client identity after the handshake frame.
func (r *WSRegistry) Register(sessionKey, clientType, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey]
	if !ok {
		return
	}
	s.ClientType = clientType
	s.ClientID = clientID
	r.byClient[clientID] = s
	r.logger.Info("client registered", "type", clientType, "id", clientID)
}

func (r *WSRegistry) Remove(sessionKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey]
	if !ok {
		return
	}
	delete(r.sessions, sessionKey)
	if s.ClientID != "" && r.byClient[s.ClientID] == s {
		delete(r.byClient, s.ClientID)
	}
}

// Publish broadcasts to every session, or to the single session registered
// under evt.Target. A missing target is not an error; the client may simply
// have disconnected.
func (r *WSRegistry) Publish(evt Event) error {
	r.mu.RLock()
	var targets []*WSSession
	if evt.Target != "" {
		if s, ok := r.byClient[evt.Target]; ok {
			targets = []*WSSession{s}
		}
	} else {
		targets = make([]*WSSession, 0, len(r.sessions))
		for _, s := range r.sessions {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(evt); err != nil {
			r.logger.Warn("ws send failed", "type", evt.Type, "client", s.ClientID, "error", err)
		}
	}
	return nil
}
