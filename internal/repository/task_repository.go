package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaycrm/api/internal/ids"
	"relaycrm/api/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

const taskColumns = `
	id, owner_id, project_id, title, description, status, priority,
	due_date, assigned_to, created_at, updated_at
`

func (r *TaskRepository) List(ctx context.Context, ownerID string) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByStatus orders by due date so the nearest deadlines surface first.
func (r *TaskRepository) ListByStatus(ctx context.Context, ownerID string, status models.TaskStatus) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1 AND status = $2
		ORDER BY due_date ASC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, ownerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1
		ORDER BY due_date ASC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (models.Task, error) {
	const query = `
		SELECT ` + taskColumns + `
		FROM tasks WHERE id = $1
	`

	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *TaskRepository) Create(ctx context.Context, task models.Task) (models.Task, error) {
	const query = `
		INSERT INTO tasks (
			id, owner_id, project_id, title, description, status, priority,
			due_date, assigned_to, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10
		)
	`

	task.ID = ids.New()
	if task.Status == "" {
		task.Status = models.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = models.TaskPriorityMedium
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.OwnerID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.AssignedTo,
		now,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, update models.TaskUpdate) (models.Task, error) {
	const query = `
		UPDATE tasks
		SET project_id = COALESCE($2, project_id),
		    title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    priority = COALESCE($6, priority),
		    due_date = COALESCE($7, due_date),
		    assigned_to = COALESCE($8, assigned_to),
		    updated_at = $9
		WHERE id = $1
		RETURNING ` + taskColumns + `
	`

	return scanTask(r.pool.QueryRow(ctx, query,
		id,
		update.ProjectID,
		update.Title,
		update.Description,
		update.Status,
		update.Priority,
		update.DueDate,
		update.AssignedTo,
		time.Now().UTC(),
	))
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (models.Task, error) {
	var task models.Task
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.ProjectID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.AssignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}
