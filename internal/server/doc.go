// Package server provides the ytcat HTTP API along with routing, middleware and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [MuxRouter] implements it on
// gorilla/mux so routes can carry path variables such as {channel_id}.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [MuxRouter.With] derives a router over the same routes with extra middleware, which is how the
// authenticated /api routes get [RequireUser] and the per-user [RateLimiter] while /api/health does not.
//
// # API
//
// [Server] exposes categories, categorization records, the live subscription fetch, the user's own
// channels and a channel's recent uploads for the user identified by the bearer token. Domain errors map to statuses in [StatusFor] and are written as
// {"error": "...", "code": "..."}.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for `ytcat auth login`.
//
// The handler validates the state parameter (CSRF protection), logs the user in through a
// [services.Authenticator], and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
package server
