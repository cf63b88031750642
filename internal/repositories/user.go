package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

const userColumns = `id, external_id, email, name, access_token, refresh_token, created_at, updated_at`

// UserRepository persists [models.User] accounts keyed by the OAuth provider's external id.
type UserRepository struct {
	db    *sqlx.DB
	clock Clock
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, clock: systemClock}
}

// WithClock replaces the time source used for timestamps.
func (r *UserRepository) WithClock(c Clock) *UserRepository {
	r.clock = c
	return r
}

// Upsert creates the user on first login and refreshes email, name and tokens on every later login.
//
// An empty refresh token keeps the stored one since the provider only issues it on first consent.
func (r *UserRepository) Upsert(ctx context.Context, profile models.LoginProfile) (*models.User, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := stamp(r.clock)
	query := r.db.Rebind(`
		INSERT INTO users (external_id, email, name, access_token, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token <> '' THEN excluded.refresh_token ELSE users.refresh_token END,
			updated_at = excluded.updated_at
		RETURNING id
	`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		profile.ExternalID,
		profile.Email,
		profile.Name,
		profile.AccessToken,
		profile.RefreshToken,
		now,
		now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.Get(ctx, id)
}

// Get retrieves a user by internal id.
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id, id)
}

// GetByExternalID retrieves a user by the provider's identity key.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getBy(ctx, "external_id", externalID, externalID)
}

// GetByAccessToken resolves the user that currently holds the given bearer token.
func (r *UserRepository) GetByAccessToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, &shared.NotFoundError{Resource: "user", ID: "(empty token)"}
	}
	return r.getBy(ctx, "access_token", token, "(token)")
}

// List returns every user ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// getBy looks a user up by column; label is what a not-found error reports.
func (r *UserRepository) getBy(ctx context.Context, column string, value, label any) (*models.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)

	var user models.User
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		return nil, queryError(err, "user", label)
	}
	return &user, nil
}
