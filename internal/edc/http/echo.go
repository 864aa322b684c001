package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/service"
	"github.com/tapstone/edcd/pkg/httpx"
	"github.com/tapstone/edcd/pkg/slogx"
	"github.com/tapstone/edcd/pkg/termid"
)

// SignatureHeader carries the terminal's HMAC over its own ID, keyed by the
// shared secret and the terminal's clock.
const SignatureHeader = "Signature"

// EchoHandler serves the terminal heartbeat endpoints.
type EchoHandler struct {
	EchoService *service.EchoService
}

type echoRequest struct {
	TerminalID string `json:"terminalId"`
}

type echoResponse struct {
	ID         string    `json:"id"`
	TerminalID string    `json:"terminalId"`
	Timestamp  time.Time `json:"timestamp"`
}

func (h *EchoHandler) HandleEcho(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "Signature header is required")
		return
	}

	var req echoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if req.TerminalID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "terminalId is required")
		return
	}
	if !termid.Valid(req.TerminalID) {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "terminalId must match {EDC|ATM|POS|KIOSK}-{AAA}-{000}")
		return
	}

	entry, err := h.EchoService.RecordEcho(ctx, signature, req.TerminalID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized", "invalid signature")
		case errors.Is(err, service.ErrTerminalNotFound):
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
		default:
			log.Error("echo record failed", "error", err, "terminal_id", req.TerminalID)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to record echo")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "echo recorded successfully", echoResponse{
		ID:         entry.ID,
		TerminalID: entry.TerminalID,
		Timestamp:  entry.Timestamp,
	})
}

func (h *EchoHandler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter, msg := parseEchoFilter(q)
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", msg)
		return
	}

	page, err := h.EchoService.ListEchoLogs(ctx, filter, parsePageRequest(q))
	if err != nil {
		slogx.FromContext(ctx).Error("echo log list failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to list echo logs")
		return
	}

	out := make([]echoResponse, 0, len(page.Content))
	for _, e := range page.Content {
		out = append(out, echoResponse{ID: e.ID, TerminalID: e.TerminalID, Timestamp: e.Timestamp})
	}
	httpx.WriteSuccess(w, http.StatusOK, "echo logs retrieved successfully", domain.NewPageFrom(out, page))
}

func parseEchoFilter(q url.Values) (domain.EchoLogFilter, string) {
	f := domain.EchoLogFilter{TerminalID: q.Get("terminalId")}

	for key, dst := range map[string]**time.Time{
		"from": &f.From,
		"to":   &f.To,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.EchoLogFilter{}, key + " must be an RFC 3339 timestamp"
		}
		*dst = &t
	}

	return f, ""
}
