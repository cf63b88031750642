package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

// SubscriptionRepository stores categorization records, at most one per (user, channel).
type SubscriptionRepository struct {
	db    *sqlx.DB
	clock Clock
}

// NewSubscriptionRepository creates a new [SubscriptionRepository] with the given database connection
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db, clock: systemClock}
}

// WithClock replaces the time source used for created_at.
func (r *SubscriptionRepository) WithClock(c Clock) *SubscriptionRepository {
	r.clock = c
	return r
}

// Insert persists sub with a single INSERT and fills in its id and created_at.
//
// A second row for the same (user, channel) fails with [shared.AlreadyCategorizedError].
// A category that is not the user's is rejected by the composite foreign key and reported as [shared.InvalidCategoryError].
func (r *SubscriptionRepository) Insert(ctx context.Context, sub *models.Subscription) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	createdAt := stamp(r.clock)
	query := r.db.Rebind(`
		INSERT INTO subscriptions (user_id, channel_id, channel_title, channel_thumbnail, category_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)

	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		sub.UserID,
		sub.ChannelID,
		sub.ChannelTitle,
		sub.ChannelThumbnail,
		sub.CategoryID,
		createdAt,
	).Scan(&id)

	switch {
	case err == nil:
		sub.ID = id
		sub.CreatedAt = createdAt
		return nil
	case shared.IsUniqueViolation(err):
		return &shared.AlreadyCategorizedError{ChannelID: sub.ChannelID}
	case shared.IsForeignKeyViolation(err) && sub.CategoryID != nil:
		return &shared.InvalidCategoryError{CategoryID: *sub.CategoryID}
	case shared.IsForeignKeyViolation(err):
		return &shared.NotFoundError{Resource: "user", ID: sub.UserID}
	default:
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
}

// ListForUser returns every record owned by userID with its category name, newest first.
//
// The join matches on both category id and owner so another user's category can never supply a name.
func (r *SubscriptionRepository) ListForUser(ctx context.Context, userID int64) ([]models.CategorizedSubscription, error) {
	query := r.db.Rebind(`
		SELECT s.id, s.user_id, s.channel_id, s.channel_title, s.channel_thumbnail, s.category_id, s.created_at,
			c.name AS category_name
		FROM subscriptions s
		LEFT JOIN categories c ON c.id = s.category_id AND c.user_id = s.user_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC, s.id DESC
	`)

	subs := []models.CategorizedSubscription{}
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return subs, nil
}

// ListByCategory returns the user's records in categoryID, newest first. A category the user does not own yields an empty slice.
func (r *SubscriptionRepository) ListByCategory(ctx context.Context, userID, categoryID int64) ([]models.Subscription, error) {
	query := r.db.Rebind(`
		SELECT id, user_id, channel_id, channel_title, channel_thumbnail, category_id, created_at
		FROM subscriptions
		WHERE user_id = ? AND category_id = ?
		ORDER BY created_at DESC, id DESC
	`)

	subs := []models.Subscription{}
	if err := r.db.SelectContext(ctx, &subs, query, userID, categoryID); err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	return subs, nil
}

// CountForUser returns how many records userID has.
func (r *SubscriptionRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM subscriptions WHERE user_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}
