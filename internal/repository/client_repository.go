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

var ErrClientNotFound = errors.New("client not found")

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

const clientColumns = `
	id, owner_id, name, email, phone, company, status, contract_value,
	converted_from_lead_id, notes, created_at, updated_at
`

func (r *ClientRepository) List(ctx context.Context, ownerID string) ([]models.Client, error) {
	const query = `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (models.Client, error) {
	const query = `
		SELECT ` + clientColumns + `
		FROM clients WHERE id = $1
	`

	return scanClient(r.pool.QueryRow(ctx, query, id))
}

func (r *ClientRepository) Create(ctx context.Context, client models.Client) (models.Client, error) {
	const query = `
		INSERT INTO clients (
			id, owner_id, name, email, phone, company, status, contract_value,
			converted_from_lead_id, notes, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11
		)
	`

	client.ID = ids.New()
	if client.Status == "" {
		client.Status = models.ClientStatusActive
	}
	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		client.ID,
		client.OwnerID,
		client.Name,
		client.Email,
		client.Phone,
		client.Company,
		client.Status,
		client.ContractValue,
		client.ConvertedFromLeadID,
		client.Notes,
		now,
	)
	if err != nil {
		return models.Client{}, err
	}
	return client, nil
}

func (r *ClientRepository) Update(ctx context.Context, id string, update models.ClientUpdate) (models.Client, error) {
	const query = `
		UPDATE clients
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    phone = COALESCE($4, phone),
		    company = COALESCE($5, company),
		    status = COALESCE($6, status),
		    contract_value = COALESCE($7, contract_value),
		    notes = COALESCE($8, notes),
		    updated_at = $9
		WHERE id = $1
		RETURNING ` + clientColumns + `
	`

	return scanClient(r.pool.QueryRow(ctx, query,
		id,
		update.Name,
		update.Email,
		update.Phone,
		update.Company,
		update.Status,
		update.ContractValue,
		update.Notes,
		time.Now().UTC(),
	))
}

func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM clients WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func scanClient(row pgx.Row) (models.Client, error) {
	var client models.Client
	if err := row.Scan(
		&client.ID,
		&client.OwnerID,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Company,
		&client.Status,
		&client.ContractValue,
		&client.ConvertedFromLeadID,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Client{}, ErrClientNotFound
		}
		return models.Client{}, err
	}
	return client, nil
}
