// Package models defines domain entities for the ytcat subscription categorization service.
//
// The package contains two categories of types:
//
// 1. Transient values produced outside the database
//   - [Credentials] : The acting user and their bearer token
//   - [LoginProfile] : Identity and tokens returned by the OAuth provider
//   - [RawSubscriptionItem] : One channel as reported by the subscriptions endpoint
//
// 2. Persistent entities
//   - [User] : Accounts keyed by the provider's external id
//   - [Category] : User-owned labels, unique by name per user
//   - [Subscription] : At most one categorization record per (user, channel)
//   - [CategorizedSubscription] : A subscription joined with its category name
//
// Persistent entities implement [Model] and carry db tags for scanning with sqlx.
package models
