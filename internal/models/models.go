// package models defines the data model for the subscription categorization service
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytcat/internal/shared"
)

// Model defines the base interface for persistent models.
type Model interface {
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// User is an account created on first login and refreshed on every later login.
type User struct {
	ID           int64     `db:"id" json:"id"`
	ExternalID   string    `db:"external_id" json:"external_id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	AccessToken  string    `db:"access_token" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks required fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ExternalID) == "" {
		return fmt.Errorf("%w: user external id is required", shared.ErrInvalidInput)
	}
	return nil
}

// Credentials returns the credential context for acting as this user.
func (u *User) Credentials() Credentials {
	return Credentials{UserID: u.ID, AccessToken: u.AccessToken}
}

// LoginProfile is what the OAuth provider hands back after a successful login.
type LoginProfile struct {
	ExternalID   string `json:"external_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// Validate checks required fields.
func (p LoginProfile) Validate() error {
	if strings.TrimSpace(p.ExternalID) == "" {
		return fmt.Errorf("%w: profile external id is required", shared.ErrInvalidInput)
	}
	if p.AccessToken == "" {
		return fmt.Errorf("%w: profile access token is required", shared.ErrMissingCredentials)
	}
	return nil
}

// Credentials identifies the acting user and carries the bearer token used against the YouTube API.
//
// The token is opaque here and never refreshed.
type Credentials struct {
	UserID      int64
	AccessToken string
}

// Validate checks that both the user id and token are present.
func (c Credentials) Validate() error {
	if c.UserID <= 0 {
		return fmt.Errorf("%w: user id is required", shared.ErrNotAuthenticated)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: access token is required", shared.ErrNotAuthenticated)
	}
	return nil
}

// Category is a user-owned label. Names are unique per user and categories are immutable.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Validate checks required fields.
func (c *Category) Validate() error {
	if c.UserID <= 0 {
		return fmt.Errorf("%w: category owner is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", shared.ErrInvalidInput)
	}
	return nil
}

// Subscription is a persisted categorization record: at most one per (user, channel).
//
// A nil CategoryID means the channel was recorded without a category.
type Subscription struct {
	ID               int64     `db:"id" json:"id"`
	UserID           int64     `db:"user_id" json:"user_id"`
	ChannelID        string    `db:"channel_id" json:"channel_id"`
	ChannelTitle     string    `db:"channel_title" json:"channel_title"`
	ChannelThumbnail *string   `db:"channel_thumbnail" json:"channel_thumbnail,omitempty"`
	CategoryID       *int64    `db:"category_id" json:"category_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Validate checks required fields.
func (s *Subscription) Validate() error {
	if s.UserID <= 0 {
		return fmt.Errorf("%w: subscription owner is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(s.ChannelID) == "" {
		return fmt.Errorf("%w: channel id is required", shared.ErrInvalidInput)
	}
	if s.ChannelTitle == "" {
		return fmt.Errorf("%w: channel title is required", shared.ErrInvalidInput)
	}
	return nil
}

// Thumbnail returns the thumbnail URL or an empty string.
func (s *Subscription) Thumbnail() string {
	if s.ChannelThumbnail == nil {
		return ""
	}
	return *s.ChannelThumbnail
}

// CategorizedSubscription is a subscription joined with its category name.
type CategorizedSubscription struct {
	Subscription
	CategoryName *string `db:"category_name" json:"category_name"`
}

// Category returns the category name, or fallback when uncategorized.
func (s *CategorizedSubscription) Category(fallback string) string {
	if s.CategoryName == nil {
		return fallback
	}
	return *s.CategoryName
}

// RawSubscriptionItem is one channel as returned by the subscriptions endpoint. It is never persisted.
type RawSubscriptionItem struct {
	ChannelID    string    `json:"channel_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnail_url"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Channel is a YouTube channel as described by channels.list. It is never persisted.
type Channel struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ThumbnailURL      string `json:"thumbnail_url"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
	SubscriberCount   uint64 `json:"subscriber_count"`
	VideoCount        uint64 `json:"video_count"`
	ViewCount         uint64 `json:"view_count"`
}

// Video is one upload from a channel's uploads playlist.
type Video struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"`
}
