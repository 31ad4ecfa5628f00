package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskmgr/taskmgr-api/internal/domain/task"
)

// taskRepository implements TaskRepository using PostgreSQL
type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create inserts a new task into the database
func (r *taskRepository) Create(ctx context.Context, t *task.Task) error {
	if t.OwnerID == uuid.Nil {
		return errors.New("owner_id cannot be nil")
	}

	query := `
		INSERT INTO tasks (
			id, title, description, status, priority,
			due_date, owner_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.OwnerID, t.CreatedAt, t.UpdatedAt,
	)

	if err != nil {
		if IsDuplicateKeyViolation(err) {
			return fmt.Errorf("%w: task %s", ErrDuplicateKey, t.ID)
		}
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner %s", ErrForeignKey, t.OwnerID)
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID retrieves a task owned by ownerID. A task belonging to someone
// else is indistinguishable from a missing one.
func (r *taskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	query := `
		SELECT id, title, description, status, priority,
			due_date, owner_id, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return t, nil
}

// Update rewrites the mutable task fields, still owner-scoped.
func (r *taskRepository) Update(ctx context.Context, t *task.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
			due_date = $5, updated_at = $6
		WHERE id = $7 AND owner_id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Status, t.Priority,
		t.DueDate, t.UpdatedAt, t.ID, t.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a task owned by ownerID.
func (r *taskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// orderableColumns whitelists the sortable columns exposed through the
// API. Anything else falls back to creation time.
var orderableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"due_date":   true,
	"priority":   true,
	"status":     true,
}

// List returns the filtered tasks for ownerID plus the total match count
// before limit/offset, for pagination.
func (r *taskRepository) List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter) ([]*task.Task, int64, error) {
	where := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		addArg("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		addArg("priority = $%d", *filter.Priority)
	}
	if filter.CreatedAfter != nil {
		addArg("created_at >= $%d", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		addArg("created_at <= $%d", *filter.CreatedBefore)
	}
	if filter.DueAfter != nil {
		addArg("due_date >= $%d", *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		addArg("due_date <= $%d", *filter.DueBefore)
	}
	if filter.Overdue != nil {
		if *filter.Overdue {
			where = append(where, "due_date < NOW() AND status <> 'DONE'")
		} else {
			where = append(where, "(due_date IS NULL OR due_date >= NOW() OR status = 'DONE')")
		}
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM tasks WHERE " + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	orderClause := buildOrderClause(filter.OrderBy)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, title, description, status, priority,
			due_date, owner_id, created_at, updated_at
		FROM tasks
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderClause, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, total, nil
}

func buildOrderClause(orderBy string) string {
	direction := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		orderBy = orderBy[1:]
	}

	if !orderableColumns[orderBy] {
		return "created_at DESC"
	}

	return orderBy + " " + direction
}

// Stats aggregates task counts for one owner.
func (r *taskRepository) Stats(ctx context.Context, ownerID uuid.UUID) (*TaskStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'TODO'),
			COUNT(*) FILTER (WHERE status = 'IN_PROGRESS'),
			COUNT(*) FILTER (WHERE status = 'DONE'),
			COUNT(*) FILTER (WHERE priority = 'LOW'),
			COUNT(*) FILTER (WHERE priority = 'MEDIUM'),
			COUNT(*) FILTER (WHERE priority = 'HIGH'),
			COUNT(*) FILTER (WHERE due_date < NOW() AND status <> 'DONE')
		FROM tasks
		WHERE owner_id = $1
	`

	stats := &TaskStats{
		ByStatus:   make(map[string]int64, 3),
		ByPriority: make(map[string]int64, 3),
	}

	var todo, inProgress, done, low, medium, high int64
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&stats.Total,
		&todo, &inProgress, &done,
		&low, &medium, &high,
		&stats.Overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}

	stats.ByStatus["todo"] = todo
	stats.ByStatus["in_progress"] = inProgress
	stats.ByStatus["done"] = done
	stats.ByPriority["low"] = low
	stats.ByPriority["medium"] = medium
	stats.ByPriority["high"] = high

	return stats, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*task.Task, error) {
	var t task.Task
	var dueDate sql.NullTime

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&dueDate, &t.OwnerID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}

	return &t, nil
}
