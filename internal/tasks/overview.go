package tasks

import (
	"context"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/services"
)

// SubscriptionStatus is a fetched channel together with how the user has filed it, if at all.
type SubscriptionStatus struct {
	models.RawSubscriptionItem
	Categorized  bool    `json:"categorized"`
	CategoryID   *int64  `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
}

// Overview joins a live fetch with stored categorization records.
type Overview struct {
	source services.SubscriptionSource
	query  *QueryService
}

// NewOverview creates an [Overview].
func NewOverview(source services.SubscriptionSource, query *QueryService) *Overview {
	return &Overview{source: source, query: query}
}

// Build fetches the user's full subscription list and marks each channel that already has a record.
//
// Nothing is returned when the fetch fails.
func (o *Overview) Build(ctx context.Context, creds models.Credentials) ([]SubscriptionStatus, error) {
	items, err := o.source.FetchAll(ctx, creds)
	if err != nil {
		return nil, err
	}

	stored, err := o.query.ListSubscriptions(ctx, creds.UserID)
	if err != nil {
		return nil, err
	}

	byChannel := make(map[string]models.CategorizedSubscription, len(stored))
	for _, s := range stored {
		byChannel[s.ChannelID] = s
	}

	out := make([]SubscriptionStatus, len(items))
	for i, item := range items {
		out[i] = SubscriptionStatus{RawSubscriptionItem: item}
		if s, ok := byChannel[item.ChannelID]; ok {
			out[i].Categorized = true
			out[i].CategoryID = s.CategoryID
			out[i].CategoryName = s.CategoryName
		}
	}
	return out, nil
}
