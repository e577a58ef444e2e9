package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	auditx "github.com/tanpawarit/Chative-Genie-Analytics/agent/audit"
	contractx "github.com/tanpawarit/Chative-Genie-Analytics/agent/contract"
	transcriptx "github.com/tanpawarit/Chative-Genie-Analytics/agent/transcript"
)

const (
	maxBodyBytes = 64 << 10

	defaultAuditLimit = 20
	maxAuditLimit     = 200
)

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type askResponse struct {
	RequestID string             `json:"request_id"`
	Answer    string             `json:"answer,omitempty"`
	Domains   []contractx.Domain `json:"domains,omitempty"`
	Fallback  bool               `json:"fallback"`
	Error     string             `json:"error,omitempty"`
}

type historyResponse struct {
	SessionID string             `json:"session_id"`
	Turns     []transcriptx.Turn `json:"turns"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type auditResponse struct {
	Entries []auditx.Entry `json:"entries"`
}

type handler struct {
	asker Asker
	audit AuditReader
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	// Blank questions are routed too; the router asks every domain.

	reply := h.asker.Ask(r.Context(), strings.TrimSpace(req.SessionID), req.Question)
	if reply.Failed {
		writeJSON(w, http.StatusBadGateway, askResponse{
			RequestID: reply.RequestID,
			Error:     reply.Text,
		})
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		RequestID: reply.RequestID,
		Answer:    reply.Text,
		Domains:   reply.Domains,
		Fallback:  reply.Fallback,
	})
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := h.asker.History(r.Context(), sessionID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Turns: turns})
}

func (h *handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.asker.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("audit read failed")
		writeError(w, http.StatusInternalServerError, "audit log unavailable")
		return
	}
	if entries == nil {
		entries = []auditx.Entry{}
	}
	writeJSON(w, http.StatusOK, auditResponse{Entries: entries})
}

func (h *handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, transcriptx.ErrInvalidSession) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("transcript store failed")
	writeError(w, http.StatusInternalServerError, "transcript store unavailable")
}

// writeError uses the same "Error: <message>" text the assistant replies with.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: "Error: " + msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
