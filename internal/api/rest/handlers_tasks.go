package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/task"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
	"github.com/taskmgr/taskmgr-api/internal/service/taskmgmt"
)

// handleListTasks returns the caller's tasks, filtered and paginated.
// GET /api/v1/tasks
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	page := parsePagination(r)
	filter, errMsg := parseTaskFilter(r)
	if errMsg != "" {
		writeErrorBody(w, http.StatusBadRequest, "INVALID_FILTER", errMsg)
		return
	}
	filter.Limit = page.PageSize
	filter.Offset = page.offset()

	tasks, total, err := h.services.Tasks.List(r.Context(), ownerID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newPagedResponse(total, page, newTaskResponses(tasks)))
}

// parseTaskFilter reads the supported list query parameters. Unknown
// parameters are ignored; malformed values of known ones are rejected.
func parseTaskFilter(r *http.Request) (repository.TaskFilter, string) {
	q := r.URL.Query()
	filter := repository.TaskFilter{
		Search:  q.Get("search"),
		OrderBy: q.Get("ordering"),
	}

	if raw := q.Get("status"); raw != "" {
		status := task.Status(raw)
		if !status.Valid() {
			return filter, "invalid status filter"
		}
		filter.Status = &status
	}

	if raw := q.Get("priority"); raw != "" {
		priority := task.Priority(raw)
		if !priority.Valid() {
			return filter, "invalid priority filter"
		}
		filter.Priority = &priority
	}

	for param, dest := range map[string]**time.Time{
		"created_after":  &filter.CreatedAfter,
		"created_before": &filter.CreatedBefore,
		"due_after":      &filter.DueAfter,
		"due_before":     &filter.DueBefore,
	} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, "invalid " + param + " timestamp, expected RFC 3339"
		}
		*dest = &parsed
	}

	if raw := q.Get("is_overdue"); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, "invalid is_overdue value"
		}
		filter.Overdue = &overdue
	}

	return filter, ""
}

// handleCreateTask creates a task owned by the caller.
// POST /api/v1/tasks
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	var req createTaskRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	t, err := h.services.Tasks.Create(r.Context(), ownerID, taskmgmt.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      task.Status(req.Status),
		Priority:    task.Priority(req.Priority),
		DueDate:     req.DueDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTaskResponse(t))
}

// handleGetTask returns one task.
// GET /api/v1/tasks/{id}
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	t, err := h.services.Tasks.Get(r.Context(), ownerID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(t))
}

// handleUpdateTask applies a full or partial update.
// PUT/PATCH /api/v1/tasks/{id}
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	input := taskmgmt.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		status := task.Status(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := task.Priority(*req.Priority)
		input.Priority = &priority
	}

	t, err := h.services.Tasks.Update(r.Context(), ownerID, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(t))
}

// handleDeleteTask removes a task.
// DELETE /api/v1/tasks/{id}
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	if err := h.services.Tasks.Delete(r.Context(), ownerID, taskID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMarkDone transitions a task to DONE.
// POST /api/v1/tasks/{id}/mark_done
func (h *Handler) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	ownerID, taskID, ok := h.taskRequestIDs(w, r)
	if !ok {
		return
	}

	t, err := h.services.Tasks.MarkDone(r.Context(), ownerID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(t))
}

// handleTaskStats returns per-owner task counts.
// GET /api/v1/tasks/stats
func (h *Handler) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := userIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Authorization required")
		return
	}

	stats, err := h.services.Tasks.Stats(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) taskRequestIDs(w http.ResponseWriter, r *http.Request) (ownerID, taskID uuid.UUID, ok bool) {
	ownerID, authed := userIDFromContext(r.Context())
	if !authed {
		writeUnauthorized(w, "Authorization required")
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "INVALID_ID", "task ID must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}

	return ownerID, taskID, true
}
