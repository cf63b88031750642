// Package services implements the clients ytcat uses to reach Google.
//
// # Subscription fetching
//
// [SubscriptionFetcher] implements [SubscriptionSource] on top of the YouTube Data API v3 client.
// It requests subscriptions.list with part=snippet, mine=true and maxResults=50, following nextPageToken
// until the API stops returning one.
//
// Requests are authenticated with an [oauth2.StaticTokenSource] built from the caller's access token.
// The token is never refreshed here.
//
// Fetching is all-or-nothing. A network error, a non-2xx status, a cursor that repeats, or running past
// the page cap (200 by default) each abort the fetch with a [shared.FetchError] and no items.
//
// # Channels and uploads
//
// [SubscriptionFetcher] also implements [ChannelSource]. OwnChannels calls channels.list with mine=true.
// RecentVideos resolves a channel's uploads playlist through channels.list and reads its newest
// entries with playlistItems.list. A channel without an uploads playlist is a [shared.NotFoundError].
//
// # Login
//
// [GoogleAuth] implements [Authenticator] with the authorization code flow. It requests the openid, email,
// profile and youtube.readonly scopes with offline access, then reads the account id, email and name from
// the userinfo endpoint.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.FetchError] : a subscription fetch failed; wraps the cause
//   - [shared.ErrAPIRequest] : the API answered with a non-2xx status
//   - [shared.ErrAuthFailed] : code exchange or identity lookup failed
//   - [shared.ErrMissingCredentials] : the OAuth client is not configured
package services
