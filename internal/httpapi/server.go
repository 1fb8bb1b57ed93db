package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/notify"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/orchestrator"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/reputation"
	"github.com/Hari2k23/Multi-Agent-Procurement-System/internal/session"
)

// #region server

// Server exposes the engine over HTTP.
type Server struct {
	engine     *orchestrator.Engine
	reputation *reputation.Store
	notifier   *notify.Notifier
}

// New creates the HTTP server facade.
func New(engine *orchestrator.Engine, rep *reputation.Store, notifier *notify.Notifier) *Server {
	return &Server{engine: engine, reputation: rep, notifier: notifier}
}

// Routes returns the chi router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/chat", s.handleChat)
	r.Post("/verify", s.handleVerify)
	r.Get("/reputation/{supplier}", s.handleReputation)
	r.Get("/notifications", s.handleNotifications)
	return r
}

// #endregion server

// #region handlers

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Message        string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = session.NewConversationID()
	}

	reply, err := s.engine.HandleMessage(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": req.ConversationID,
		"reply":           reply.Text,
		"state":           reply.State,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PONumber     string `json:"po_number"`
		DeliveryText string `json:"delivery_text"`
		InvoiceText  string `json:"invoice_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PONumber == "" {
		writeError(w, http.StatusBadRequest, "po_number is required")
		return
	}

	result, err := s.engine.ProcessVerification(r.Context(), req.PONumber, req.DeliveryText, req.InvoiceText)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReputation(w http.ResponseWriter, r *http.Request) {
	supplier := chi.URLParam(r, "supplier")
	rep, err := s.reputation.Lookup(supplier)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"supplier_id":     rep.SupplierID,
		"total_orders":    rep.TotalOrders,
		"total_incidents": rep.TotalIncidents,
		"mismatch_rate":   rep.MismatchRate(),
		"repeat_offender": rep.RepeatOffender(),
		"incidents":       rep.Incidents,
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	hist, err := s.notifier.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": hist})
}

// #endregion handlers

// #region json

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// #endregion json
