package rest

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	domainerrors "github.com/taskmgr/taskmgr-api/internal/domain/errors"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func writeValidationError(w http.ResponseWriter, message string, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
	}})
}

// writeError maps domain and repository errors onto HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "resource not found")
		return
	case errors.Is(err, repository.ErrDuplicateKey):
		writeErrorBody(w, http.StatusConflict, "CONFLICT", "resource already exists")
		return
	}

	if appErr, ok := domainerrors.GetAppError(err); ok {
		writeErrorBody(w, appErr.StatusCode, appErr.Code, appErr.Message)
		return
	}

	writeErrorBody(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type pagination struct {
	Page     int
	PageSize int
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.PageSize
}

// parsePagination reads page/page_size query params with the API
// defaults (page 1, size 20, max 100).
func parsePagination(r *http.Request) pagination {
	p := pagination{Page: 1, PageSize: defaultPageSize}

	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			p.Page = page
		}
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			if size > maxPageSize {
				size = maxPageSize
			}
			p.PageSize = size
		}
	}

	return p
}

// pagedResponse is the list envelope shared by all paginated endpoints.
type pagedResponse struct {
	Count      int64       `json:"count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
	Results    interface{} `json:"results"`
}

func newPagedResponse(total int64, p pagination, results interface{}) pagedResponse {
	totalPages := int(math.Ceil(float64(total) / float64(p.PageSize)))
	if totalPages == 0 {
		totalPages = 1
	}

	return pagedResponse{
		Count:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
		Results:    results,
	}
}
