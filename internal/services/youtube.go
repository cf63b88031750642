// YouTube Data API v3 subscription fetching
//
// Pages through subscriptions.list (part=snippet, mine=true) with the user's bearer token.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/desertthunder/ytcat/internal/models"
	"github.com/desertthunder/ytcat/internal/shared"
)

const (
	defaultYouTubeEndpoint = "https://youtube.googleapis.com/"
	defaultPageSize        = shared.MaxPageSize
	defaultMaxPages        = 200
	defaultRequestTimeout  = 30 * time.Second
)

// SubscriptionFetcher drives cursor pagination over subscriptions.list and returns the full list.
//
// It holds no per-user state, so one fetcher serves concurrent fetches for different users.
type SubscriptionFetcher struct {
	endpoint   string
	pageSize   int64
	maxPages   int
	httpClient *http.Client
	logger     *log.Logger
}

// FetcherOption configures a [SubscriptionFetcher].
type FetcherOption func(*SubscriptionFetcher)

// WithEndpoint points the fetcher at another API root (a test server, for example). The trailing slash matters.
func WithEndpoint(endpoint string) FetcherOption {
	return func(f *SubscriptionFetcher) { f.endpoint = endpoint }
}

// WithPageSize sets maxResults, clamped to 1..50.
func WithPageSize(n int) FetcherOption {
	return func(f *SubscriptionFetcher) {
		f.pageSize = int64(min(max(n, 1), shared.MaxPageSize))
	}
}

// WithMaxPages caps how many page requests a single fetch may issue.
func WithMaxPages(n int) FetcherOption {
	return func(f *SubscriptionFetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithHTTPClient sets the base client the bearer transport wraps.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *SubscriptionFetcher) { f.httpClient = c }
}

// WithFetcherLogger sets the logger used for per-page debug output.
func WithFetcherLogger(l *log.Logger) FetcherOption {
	return func(f *SubscriptionFetcher) { f.logger = l }
}

// NewSubscriptionFetcher creates a fetcher with pages of 50 and a 200 page cap unless overridden.
func NewSubscriptionFetcher(opts ...FetcherOption) *SubscriptionFetcher {
	f := &SubscriptionFetcher{
		endpoint:   defaultYouTubeEndpoint,
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = shared.DiscardLogger()
	}
	return f
}

// NewSubscriptionFetcherFromConfig builds a fetcher from the [youtube] config section.
func NewSubscriptionFetcherFromConfig(cfg shared.YouTubeConfig, logger *log.Logger) *SubscriptionFetcher {
	opts := []FetcherOption{
		WithPageSize(cfg.PageSize),
		WithMaxPages(cfg.MaxPages),
		WithFetcherLogger(logger),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, WithEndpoint(cfg.Endpoint))
	}
	return NewSubscriptionFetcher(opts...)
}

// MaxPages returns the page cap.
func (f *SubscriptionFetcher) MaxPages() int { return f.maxPages }

// FetchAll returns every subscription of the credential's user in API order.
//
// Any failed page aborts the whole fetch with a [shared.FetchError] and a nil slice.
// A fetch that would need more than MaxPages requests, or whose cursor stops advancing, fails the same way.
// When ctx is cancelled the request already on the wire is allowed to finish and its page is discarded.
func (f *SubscriptionFetcher) FetchAll(ctx context.Context, creds models.Credentials) ([]models.RawSubscriptionItem, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("cannot fetch subscriptions: %w", err)
	}

	svc, err := f.service(ctx, creds.AccessToken)
	if err != nil {
		return nil, &shared.FetchError{Page: 1, Err: err}
	}

	logger := shared.WithLogger(f.logger, "user_id", creds.UserID)
	items := []models.RawSubscriptionItem{}
	cursor := ""

	for page := 1; ; page++ {
		if page > f.maxPages {
			return nil, &shared.FetchError{Page: page, Retrieved: len(items), Err: shared.ErrPageLimitExceeded}
		}
		if err := ctx.Err(); err != nil {
			return nil, &shared.FetchError{Page: page, Retrieved: len(items), Err: err}
		}

		call := svc.Subscriptions.List([]string{"snippet"}).
			Mine(true).
			MaxResults(f.pageSize).
			Context(context.WithoutCancel(ctx))
		if cursor != "" {
			call = call.PageToken(cursor)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, &shared.FetchError{Page: page, Retrieved: len(items), Err: classifyAPIError(err)}
		}
		if err := ctx.Err(); err != nil {
			return nil, &shared.FetchError{Page: page, Retrieved: len(items), Err: err}
		}

		for _, sub := range resp.Items {
			item, ok := toRawItem(sub)
			if !ok {
				logger.Debug("skipping subscription without a channel id", "page", page, "subscription_id", sub.Id)
				continue
			}
			items = append(items, item)
		}
		logger.Debug("fetched subscriptions page", "page", page, "items", len(resp.Items), "total", len(items))

		next := resp.NextPageToken
		if next == "" {
			break
		}
		if next == cursor {
			return nil, &shared.FetchError{Page: page, Retrieved: len(items), Err: shared.ErrRepeatedCursor}
		}
		cursor = next
	}

	return items, nil
}

// service builds a YouTube client whose requests carry "Authorization: Bearer <token>".
func (f *SubscriptionFetcher) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	base := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, f.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})

	svc, err := youtube.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(base, ts)),
		option.WithEndpoint(f.endpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return svc, nil
}

// classifyAPIError tags HTTP status failures with [shared.ErrAPIRequest] and leaves transport errors as they are.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %w", shared.ErrAPIRequest, apiErr.Code, err)
	}
	return err
}

// StatusCode extracts the HTTP status of a failed API call, or 0 when there was none.
func StatusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// toRawItem maps one API item. It reports false when the item does not name a channel.
func toRawItem(sub *youtube.Subscription) (models.RawSubscriptionItem, bool) {
	s := sub.Snippet
	if s == nil || s.ResourceId == nil || s.ResourceId.ChannelId == "" {
		return models.RawSubscriptionItem{}, false
	}

	item := models.RawSubscriptionItem{
		ChannelID:    s.ResourceId.ChannelId,
		Title:        s.Title,
		Description:  s.Description,
		ThumbnailURL: thumbnailURL(s.Thumbnails),
	}
	if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
		item.SubscribedAt = t
	}
	return item, true
}

func thumbnailURL(d *youtube.ThumbnailDetails) string {
	if d == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{d.Default, d.Medium, d.High} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
