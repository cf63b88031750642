package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

// CategoryStore is the category storage the categorizer and query service depend on.
//
// Implemented by [repositories.CategoryRepository].
type CategoryStore interface {
	Create(ctx context.Context, userID int64, name string) (*models.Category, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Category, error)
	Get(ctx context.Context, userID, categoryID int64) (*models.Category, error)
}

// SubscriptionStore is the categorization record storage.
//
// Implemented by [repositories.SubscriptionRepository].
type SubscriptionStore interface {
	Insert(ctx context.Context, sub *models.Subscription) error
	ListForUser(ctx context.Context, userID int64) ([]models.CategorizedSubscription, error)
	ListByCategory(ctx context.Context, userID, categoryID int64) ([]models.Subscription, error)
}

// CategorizeRequest names a fetched channel and the category to file it under. A nil CategoryID records it uncategorized.
type CategorizeRequest struct {
	ChannelID        string `json:"channel_id"`
	ChannelTitle     string `json:"channel_title"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	CategoryID       *int64 `json:"category_id"`
}

// ProgressUpdate reports how far a bulk operation has got.
type ProgressUpdate struct {
	Step      int
	Total     int
	ChannelID string
	Err       error
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Categorizer assigns channels to a user's categories, at most once per (user, channel).
type Categorizer struct {
	categories    CategoryStore
	subscriptions SubscriptionStore
	logger        *log.Logger
}

// NewCategorizer creates a [Categorizer]. A nil logger discards output.
func NewCategorizer(categories CategoryStore, subscriptions SubscriptionStore, logger *log.Logger) *Categorizer {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Categorizer{categories: categories, subscriptions: subscriptions, logger: logger}
}

// Categorize persists one categorization record for the credential's user.
//
// The category, when given, must belong to that user or the call fails with [shared.InvalidCategoryError].
// The write is a single insert; a concurrent or repeated request for the same channel gets [shared.AlreadyCategorizedError].
func (c *Categorizer) Categorize(ctx context.Context, creds models.Credentials, req CategorizeRequest) (*models.Subscription, error) {
	if creds.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrNotAuthenticated)
	}

	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel id is required", shared.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.ChannelTitle)
	if title == "" {
		title = channelID
	}

	if req.CategoryID != nil {
		if _, err := c.categories.Get(ctx, creds.UserID, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, &shared.InvalidCategoryError{CategoryID: *req.CategoryID}
			}
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
	}

	sub := &models.Subscription{
		UserID:       creds.UserID,
		ChannelID:    channelID,
		ChannelTitle: title,
		CategoryID:   req.CategoryID,
	}
	if thumb := strings.TrimSpace(req.ChannelThumbnail); thumb != "" {
		sub.ChannelThumbnail = &thumb
	}

	if err := c.subscriptions.Insert(ctx, sub); err != nil {
		if errors.Is(err, shared.ErrAlreadyCategorized) {
			c.logger.Info("channel already categorized", "user_id", creds.UserID, "channel_id", channelID)
		}
		return nil, err
	}

	c.logger.Debug("categorized channel", "user_id", creds.UserID, "channel_id", channelID, "category_id", req.CategoryID)
	return sub, nil
}

// BulkResult is the outcome of one request in [Categorizer.CategorizeAll].
type BulkResult struct {
	Request      CategorizeRequest
	Subscription *models.Subscription
	Err          error
}

// CategorizeAll categorizes each request in order, reporting progress without blocking.
//
// Failures are recorded per request and do not stop the batch; only context cancellation does.
func (c *Categorizer) CategorizeAll(ctx context.Context, creds models.Credentials, reqs []CategorizeRequest, progress chan<- ProgressUpdate) ([]BulkResult, error) {
	results := make([]BulkResult, 0, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		sub, err := c.Categorize(ctx, creds, req)
		results = append(results, BulkResult{Request: req, Subscription: sub, Err: err})
		sendProgress(progress, ProgressUpdate{Step: i + 1, Total: len(reqs), ChannelID: req.ChannelID, Err: err})
	}
	return results, nil
}

// QueryService is the read side over a user's categorization records.
type QueryService struct {
	categories    CategoryStore
	subscriptions SubscriptionStore
}

// NewQueryService creates a [QueryService].
func NewQueryService(categories CategoryStore, subscriptions SubscriptionStore) *QueryService {
	return &QueryService{categories: categories, subscriptions: subscriptions}
}

// ListSubscriptions returns every record of userID with its category name, newest first.
func (q *QueryService) ListSubscriptions(ctx context.Context, userID int64) ([]models.CategorizedSubscription, error) {
	return q.subscriptions.ListForUser(ctx, userID)
}

// ListByCategory returns the user's records in categoryID, newest first.
//
// A category with no members, or one the user does not own, gives an empty slice.
func (q *QueryService) ListByCategory(ctx context.Context, userID, categoryID int64) ([]models.Subscription, error) {
	subs, err := q.subscriptions.ListByCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return subs, nil
}

// ListCategories returns the user's categories in creation order.
func (q *QueryService) ListCategories(ctx context.Context, userID int64) ([]models.Category, error) {
	return q.categories.ListForUser(ctx, userID)
}

// CategoryGroup is one category and its members.
type CategoryGroup struct {
	Category      *models.Category                 `json:"category"`
	Subscriptions []models.CategorizedSubscription `json:"subscriptions"`
}

// Grouped returns the user's records grouped by category in category creation order,
// followed by a group with a nil Category for uncategorized records.
func (q *QueryService) Grouped(ctx context.Context, userID int64) ([]CategoryGroup, error) {
	categories, err := q.categories.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	subs, err := q.subscriptions.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]int, len(categories))
	groups := make([]CategoryGroup, 0, len(categories)+1)
	for i := range categories {
		byID[categories[i].ID] = len(groups)
		groups = append(groups, CategoryGroup{Category: &categories[i]})
	}

	var uncategorized []models.CategorizedSubscription
	for _, s := range subs {
		if s.CategoryID != nil {
			if idx, ok := byID[*s.CategoryID]; ok {
				groups[idx].Subscriptions = append(groups[idx].Subscriptions, s)
				continue
			}
		}
		uncategorized = append(uncategorized, s)
	}

	if len(uncategorized) > 0 {
		groups = append(groups, CategoryGroup{Subscriptions: uncategorized})
	}
	return groups, nil
}
