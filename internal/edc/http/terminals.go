package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tapstone/edcd/internal/edc/domain"
	"github.com/tapstone/edcd/internal/edc/service"
	"github.com/tapstone/edcd/pkg/httpx"
	"github.com/tapstone/edcd/pkg/slogx"
	"github.com/tapstone/edcd/pkg/termid"
)

// TerminalHandler serves the terminal registry endpoints.
type TerminalHandler struct {
	TerminalService *service.TerminalService
}

type terminalRequest struct {
	TerminalID      string     `json:"terminalId"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	SerialNumber    string     `json:"serialNumber"`
	Model           string     `json:"model"`
	Manufacturer    string     `json:"manufacturer"`
	LastMaintenance *time.Time `json:"lastMaintenance"`
	IPAddress       string     `json:"ipAddress"`
}

type terminalResponse struct {
	TerminalID      string     `json:"terminalId"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	SerialNumber    string     `json:"serialNumber,omitempty"`
	Model           string     `json:"model,omitempty"`
	Manufacturer    string     `json:"manufacturer,omitempty"`
	LastMaintenance *time.Time `json:"lastMaintenance,omitempty"`
	IPAddress       string     `json:"ipAddress,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newTerminalResponse(t domain.Terminal) terminalResponse {
	return terminalResponse{
		TerminalID:      t.ID,
		Location:        t.Location,
		Status:          string(t.Status),
		SerialNumber:    t.SerialNumber,
		Model:           t.Model,
		Manufacturer:    t.Manufacturer,
		LastMaintenance: t.LastMaintenance,
		IPAddress:       t.IPAddress,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// toDomain validates the request shape and maps it onto a domain terminal.
func (req *terminalRequest) toDomain() (domain.Terminal, string) {
	if req.Location == "" {
		return domain.Terminal{}, "location is required"
	}
	if req.TerminalID != "" && !termid.Valid(req.TerminalID) {
		return domain.Terminal{}, "terminalId must match {EDC|ATM|POS|KIOSK}-{AAA}-{000}"
	}

	t := domain.Terminal{
		ID:              req.TerminalID,
		Location:        req.Location,
		SerialNumber:    req.SerialNumber,
		Model:           req.Model,
		Manufacturer:    req.Manufacturer,
		LastMaintenance: req.LastMaintenance,
		IPAddress:       req.IPAddress,
	}
	if req.Status != "" {
		status, err := domain.ParseTerminalStatus(req.Status)
		if err != nil {
			return domain.Terminal{}, err.Error()
		}
		t.Status = status
	}
	return t, ""
}

func (h *TerminalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req terminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	t, msg := req.toDomain()
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", msg)
		return
	}

	created, err := h.TerminalService.CreateTerminal(ctx, t)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTerminalExists):
			httpx.WriteError(w, http.StatusConflict, "Conflict", err.Error())
		case errors.Is(err, termid.ErrInvalidFormat), errors.Is(err, termid.ErrInvalidLocation):
			httpx.WriteError(w, http.StatusBadRequest, "Bad Request", err.Error())
		default:
			log.Error("terminal create failed", "error", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to create terminal")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "terminal created successfully", newTerminalResponse(created))
}

func (h *TerminalHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("terminalId")

	t, err := h.TerminalService.GetTerminal(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrTerminalNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		slogx.FromContext(ctx).Error("terminal fetch failed", "error", err, "terminal_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to fetch terminal")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "terminal retrieved successfully", newTerminalResponse(t))
}

func (h *TerminalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	id := r.PathValue("terminalId")

	var req terminalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	req.TerminalID = id
	t, msg := req.toDomain()
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", msg)
		return
	}
	if t.Status == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", "status is required")
		return
	}

	updated, err := h.TerminalService.UpdateTerminal(ctx, t)
	if err != nil {
		if errors.Is(err, service.ErrTerminalNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		log.Error("terminal update failed", "error", err, "terminal_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to update terminal")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "terminal updated successfully", newTerminalResponse(updated))
}

func (h *TerminalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("terminalId")

	if err := h.TerminalService.DeleteTerminal(ctx, id); err != nil {
		if errors.Is(err, service.ErrTerminalNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		slogx.FromContext(ctx).Error("terminal delete failed", "error", err, "terminal_id", id)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to delete terminal")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "terminal deleted successfully", nil)
}

func (h *TerminalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter, msg := parseTerminalFilter(q)
	if msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, "Bad Request", msg)
		return
	}

	page, err := h.TerminalService.ListTerminals(ctx, filter, parsePageRequest(q))
	if err != nil {
		slogx.FromContext(ctx).Error("terminal list failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Internal Server Error", "failed to list terminals")
		return
	}

	out := make([]terminalResponse, 0, len(page.Content))
	for _, t := range page.Content {
		out = append(out, newTerminalResponse(t))
	}
	httpx.WriteSuccess(w, http.StatusOK, "terminals retrieved successfully", domain.NewPageFrom(out, page))
}

func parseTerminalFilter(q url.Values) (domain.TerminalFilter, string) {
	f := domain.TerminalFilter{
		Location:     q.Get("location"),
		Manufacturer: q.Get("manufacturer"),
		Model:        q.Get("model"),
		SerialNumber: q.Get("serialNumber"),
		IPAddress:    q.Get("ipAddress"),
	}

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseTerminalStatus(raw)
		if err != nil {
			return domain.TerminalFilter{}, err.Error()
		}
		f.Status = status
	}
	if raw := q.Get("type"); raw != "" {
		switch termid.Type(raw) {
		case termid.TypeEDC, termid.TypeATM, termid.TypePOS, termid.TypeKiosk:
			f.Type = raw
		default:
			return domain.TerminalFilter{}, "type must be one of EDC, ATM, POS, KIOSK"
		}
	}

	for key, dst := range map[string]**time.Time{
		"createdFrom":         &f.CreatedFrom,
		"createdTo":           &f.CreatedTo,
		"lastMaintenanceFrom": &f.LastMaintenanceFrom,
		"lastMaintenanceTo":   &f.LastMaintenanceTo,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.TerminalFilter{}, key + " must be an RFC 3339 timestamp"
		}
		*dst = &t
	}

	return f, ""
}

func parsePageRequest(q url.Values) domain.PageRequest {
	p := domain.PageRequest{
		SortBy:         q.Get("sortBy"),
		SortDescending: true,
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("size")); err == nil {
		p.Size = n
	}
	if dir := q.Get("sortDirection"); dir != "" {
		p.SortDescending = dir != "asc" && dir != "ASC"
	}
	return p
}
