package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/privacy-dispatch/internal/directory"
	"github.com/example/privacy-dispatch/internal/dispatch"
	"github.com/example/privacy-dispatch/internal/geo"
	"github.com/example/privacy-dispatch/internal/matcher"
	"github.com/example/privacy-dispatch/internal/models"
	"github.com/example/privacy-dispatch/internal/order"
)

// Server is the transport boundary: it decodes requests, delegates to the
// core and translates typed errors into status codes. No matching or
// lifecycle logic lives here.
type Server struct {
	Directory directory.Directory
	Orders    *order.Controller
	Matcher   *matcher.Service
	WSReg     *dispatch.WSRegistry

	logger *slog.Logger
	mux    *mux.Router
}

func NewServer(dir directory.Directory, orders *order.Controller, m *matcher.Service, wsreg *dispatch.WSRegistry, logger *slog.Logger) *Server {
	s := &Server{
		Directory: dir,
		Orders:    orders,
		Matcher:   m,
		WSReg:     wsreg,
		logger:    logger,
		mux:       mux.NewRouter(),
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/orders", s.handleCreateOrder).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{order_id}", s.handleGetOrder).Methods("GET")
	s.mux.HandleFunc("/api/v1/orders/{order_id}/accept", s.handleAccept).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{order_id}/start", s.handleStart).Methods("POST")
	s.mux.HandleFunc("/api/v1/orders/{order_id}/complete", s.handleComplete).Methods("POST")
	s.mux.HandleFunc("/api/v1/match", s.handleMatch).Methods("POST")
	s.mux.HandleFunc("/api/v1/drivers", s.handleListDrivers).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.Orders.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":      o.OrderID,
		"cell_id":       o.CellID,
		"resolution":    o.Resolution,
		"bucket_tokens": o.BucketTokens,
	})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.Orders.Get(mux.Vars(r)["order_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.Orders.Get(req.OrderID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Matcher.Match(o))
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID string `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := s.Orders.Accept(r.Context(), mux.Vars(r)["order_id"], req.DriverID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	o, err := s.Orders.StartTrip(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	o, err := s.Orders.Complete(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleListDrivers exposes the raw directory. Demo/debug surface only; it
// is deliberately not privacy-preserving.
func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Directory.Snapshot())
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrInvalidInput), errors.Is(err, geo.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrOrderNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrAlreadyAccepted), errors.Is(err, order.ErrDuplicateOrder), errors.Is(err, order.ErrInvalidTransition):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("internal error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newID() string { return uuid.NewString() }
