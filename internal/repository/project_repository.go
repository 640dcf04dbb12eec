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

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

const projectColumns = `
	id, owner_id, client_id, name, description, status, budget, spent,
	start_date, end_date, created_at, updated_at
`

func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

// ListByStatus backs one kanban board column.
func (r *ProjectRepository) ListByStatus(ctx context.Context, ownerID string, status models.ProjectStatus) ([]models.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE owner_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProjects(rows)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (models.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects WHERE id = $1
	`

	return scanProject(r.pool.QueryRow(ctx, query, id))
}

func (r *ProjectRepository) Create(ctx context.Context, project models.Project) (models.Project, error) {
	const query = `
		INSERT INTO projects (
			id, owner_id, client_id, name, description, status, budget, spent,
			start_date, end_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
		)
	`

	project.ID = ids.New()
	if project.Status == "" {
		project.Status = models.ProjectStatusPlanning
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.ClientID,
		project.Name,
		project.Description,
		project.Status,
		project.Budget,
		project.Spent,
		project.StartDate,
		project.EndDate,
		now,
	)
	if err != nil {
		return models.Project{}, err
	}
	return project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id string, update models.ProjectUpdate) (models.Project, error) {
	const query = `
		UPDATE projects
		SET client_id = COALESCE($2, client_id),
		    name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    budget = COALESCE($6, budget),
		    spent = COALESCE($7, spent),
		    start_date = COALESCE($8, start_date),
		    end_date = COALESCE($9, end_date),
		    updated_at = $10
		WHERE id = $1
		RETURNING ` + projectColumns + `
	`

	return scanProject(r.pool.QueryRow(ctx, query,
		id,
		update.ClientID,
		update.Name,
		update.Description,
		update.Status,
		update.Budget,
		update.Spent,
		update.StartDate,
		update.EndDate,
		time.Now().UTC(),
	))
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func collectProjects(rows pgx.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func scanProject(row pgx.Row) (models.Project, error) {
	var project models.Project
	if err := row.Scan(
		&project.ID,
		&project.OwnerID,
		&project.ClientID,
		&project.Name,
		&project.Description,
		&project.Status,
		&project.Budget,
		&project.Spent,
		&project.StartDate,
		&project.EndDate,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Project{}, ErrProjectNotFound
		}
		return models.Project{}, err
	}
	return project, nil
}
