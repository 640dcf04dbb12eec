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

var ErrLeadNotFound = errors.New("lead not found")

type LeadRepository struct {
	pool *pgxpool.Pool
}

func NewLeadRepository(pool *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

const leadColumns = `
	id, owner_id, first_name, last_name, email, phone, company, position,
	status, source, value, notes, tags, created_at, updated_at
`

func (r *LeadRepository) List(ctx context.Context, ownerID string) ([]models.Lead, error) {
	const query = `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (models.Lead, error) {
	const query = `
		SELECT ` + leadColumns + `
		FROM leads WHERE id = $1
	`

	return scanLead(r.pool.QueryRow(ctx, query, id))
}

func (r *LeadRepository) Create(ctx context.Context, lead models.Lead) (models.Lead, error) {
	const query = `
		INSERT INTO leads (
			id, owner_id, first_name, last_name, email, phone, company, position,
			status, source, value, notes, tags, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14
		)
	`

	lead.ID = ids.New()
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		lead.ID,
		lead.OwnerID,
		lead.FirstName,
		lead.LastName,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Position,
		lead.Status,
		lead.Source,
		lead.Value,
		lead.Notes,
		lead.Tags,
		now,
	)
	if err != nil {
		return models.Lead{}, err
	}
	return lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, id string, update models.LeadUpdate) (models.Lead, error) {
	const query = `
		UPDATE leads
		SET first_name = COALESCE($2, first_name),
		    last_name = COALESCE($3, last_name),
		    email = COALESCE($4, email),
		    phone = COALESCE($5, phone),
		    company = COALESCE($6, company),
		    position = COALESCE($7, position),
		    status = COALESCE($8, status),
		    source = COALESCE($9, source),
		    value = COALESCE($10, value),
		    notes = COALESCE($11, notes),
		    tags = COALESCE($12, tags),
		    updated_at = $13
		WHERE id = $1
		RETURNING ` + leadColumns + `
	`

	return scanLead(r.pool.QueryRow(ctx, query,
		id,
		update.FirstName,
		update.LastName,
		update.Email,
		update.Phone,
		update.Company,
		update.Position,
		update.Status,
		update.Source,
		update.Value,
		update.Notes,
		update.Tags,
		time.Now().UTC(),
	))
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error {
	const query = `
		UPDATE leads SET status = $2, updated_at = $3 WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM leads WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (models.Lead, error) {
	var lead models.Lead
	if err := row.Scan(
		&lead.ID,
		&lead.OwnerID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Email,
		&lead.Phone,
		&lead.Company,
		&lead.Position,
		&lead.Status,
		&lead.Source,
		&lead.Value,
		&lead.Notes,
		&lead.Tags,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Lead{}, ErrLeadNotFound
		}
		return models.Lead{}, err
	}
	return lead, nil
}
