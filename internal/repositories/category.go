package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

// CategoryRepository stores user-scoped categories.
//
// Name uniqueness per user is enforced by the UNIQUE(user_id, name) constraint; this type only translates the violation.
type CategoryRepository struct {
	db    *sqlx.DB
	clock Clock
}

// NewCategoryRepository creates a new [CategoryRepository] with the given database connection
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db, clock: systemClock}
}

// WithClock replaces the time source used for created_at.
func (r *CategoryRepository) WithClock(c Clock) *CategoryRepository {
	r.clock = c
	return r
}

// Create inserts a category named name for userID.
//
// The name is trimmed; a blank name fails with [shared.ErrInvalidInput] and a name the user already owns
// (exact, case-sensitive) fails with [shared.DuplicateNameError].
func (r *CategoryRepository) Create(ctx context.Context, userID int64, name string) (*models.Category, error) {
	category := &models.Category{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: stamp(r.clock),
	}
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := r.db.Rebind(`INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?) RETURNING id`)

	err := r.db.QueryRowxContext(ctx, query, category.UserID, category.Name, category.CreatedAt).Scan(&category.ID)
	switch {
	case err == nil:
		return category, nil
	case shared.IsUniqueViolation(err):
		return nil, &shared.DuplicateNameError{Name: category.Name}
	case shared.IsForeignKeyViolation(err):
		return nil, &shared.NotFoundError{Resource: "user", ID: userID}
	default:
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
}

// ListForUser returns the user's categories in creation order.
func (r *CategoryRepository) ListForUser(ctx context.Context, userID int64) ([]models.Category, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`)

	categories := []models.Category{}
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	return categories, nil
}

// Get returns the category only when it belongs to userID; any other case is a [shared.NotFoundError].
func (r *CategoryRepository) Get(ctx context.Context, userID, categoryID int64) (*models.Category, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE id = ? AND user_id = ?
	`)

	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, categoryID, userID); err != nil {
		return nil, queryError(err, "category", categoryID)
	}
	return &category, nil
}
