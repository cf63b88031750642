// package services defines clients for the external APIs ytcat talks to
//
// YouTube Data API (subscriptions, channels, uploads), Google OAuth2 (login)
package services

import (
	"context"

	"github.com/desertthunder/ytcat/internal/models"
)

// SubscriptionSource produces the complete subscription list for one user.
//
// Implementations must be all-or-nothing: on failure they return a nil slice and a [shared.FetchError].
type SubscriptionSource interface {
	FetchAll(ctx context.Context, creds models.Credentials) ([]models.RawSubscriptionItem, error)
}

// ChannelSource looks up the user's own channels and the latest uploads of any channel.
//
// Failures are returned, never an empty result in their place.
type ChannelSource interface {
	OwnChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error)
	RecentVideos(ctx context.Context, creds models.Credentials, channelID string, limit int) ([]models.Video, error)
}

// Authenticator turns an authorization code into a login profile.
type Authenticator interface {
	// AuthURL returns the consent page URL carrying state.
	AuthURL(state string) string

	// Login exchanges code for tokens and loads the user's identity.
	Login(ctx context.Context, code string) (*models.LoginProfile, error)
}
