package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/alert"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
)

// AlertReader is the read-only slice of the alert log used by the API.
type AlertReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*alert.Alert, error)
	List(ctx context.Context, filter repository.AlertFilter) ([]*alert.Alert, int64, error)
}

// handleListAlerts returns alerts newest first, optionally filtered by
// severity and alert_type.
// GET /api/v1/alerts
func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	page := parsePagination(r)

	filter := repository.AlertFilter{
		AlertType: r.URL.Query().Get("alert_type"),
		Limit:     page.PageSize,
		Offset:    page.offset(),
	}

	if raw := r.URL.Query().Get("severity"); raw != "" {
		severity := alert.Severity(strings.ToUpper(raw))
		if !severity.Valid() {
			writeErrorBody(w, http.StatusBadRequest, "INVALID_FILTER", "invalid severity filter")
			return
		}
		filter.Severity = &severity
	}

	alerts, total, err := h.services.Alerts.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	if alerts == nil {
		alerts = []*alert.Alert{}
	}

	writeJSON(w, http.StatusOK, newPagedResponse(total, page, alerts))
}

// handleGetAlert returns one alert.
// GET /api/v1/alerts/{id}
func (h *Handler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "INVALID_ID", "alert ID must be a UUID")
		return
	}

	a, err := h.services.Alerts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}
