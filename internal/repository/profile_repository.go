package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"relaycrm/api/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Upsert(ctx context.Context, profile models.Profile) error {
	const query = `
		INSERT INTO profiles (
			user_id, email, full_name, role, department, phone, avatar_url, status,
			requires_password_change, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10
		)
		ON CONFLICT (user_id)
		DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			status = EXCLUDED.status,
			requires_password_change = EXCLUDED.requires_password_change,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		profile.UserID,
		profile.Email,
		profile.FullName,
		profile.Role,
		profile.Department,
		profile.Phone,
		profile.AvatarURL,
		profile.Status,
		profile.RequiresPasswordChange,
		time.Now().UTC(),
	)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	const query = `
		SELECT user_id, email, full_name, role, department, phone, avatar_url, status,
		       requires_password_change, created_at, updated_at
		FROM profiles WHERE user_id = $1
	`

	row := r.pool.QueryRow(ctx, query, userID)
	return scanProfile(row)
}

func (r *ProfileRepository) Update(ctx context.Context, userID string, fullName, department, phone *string) error {
	const query = `
		UPDATE profiles
		SET full_name = COALESCE($2, full_name),
		    department = COALESCE($3, department),
		    phone = COALESCE($4, phone),
		    updated_at = $5
		WHERE user_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, userID, fullName, department, phone, time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) UpdateAvatarURL(ctx context.Context, userID string, avatarURL string) error {
	const query = `
		UPDATE profiles SET avatar_url = $2, updated_at = $3 WHERE user_id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, userID, avatarURL, time.Now().UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) ClearPasswordChangeFlag(ctx context.Context, userID string) error {
	const query = `
		UPDATE profiles SET requires_password_change = FALSE, updated_at = $2 WHERE user_id = $1
	`
	_, err := r.pool.Exec(ctx, query, userID, time.Now().UTC())
	return err
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	const query = `
		SELECT user_id, email, full_name, role, department, phone, avatar_url, status,
		       requires_password_change, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

func scanProfile(row pgx.Row) (models.Profile, error) {
	var profile models.Profile
	if err := row.Scan(
		&profile.UserID,
		&profile.Email,
		&profile.FullName,
		&profile.Role,
		&profile.Department,
		&profile.Phone,
		&profile.AvatarURL,
		&profile.Status,
		&profile.RequiresPasswordChange,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, ErrProfileNotFound
		}
		return models.Profile{}, err
	}
	return profile, nil
}
