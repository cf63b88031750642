// Package repositories implements sqlx persistence for users, categories and categorization records.
//
// Queries are written with ? placeholders and passed through [sqlx.DB.Rebind], so the same
// repository serves SQLite and PostgreSQL. Inserts use RETURNING id on both.
//
// Key Implementations:
//   - [UserRepository] : accounts keyed by Google account id, looked up by access token for the API
//   - [CategoryRepository] : per-user category names, unique per user
//   - [SubscriptionRepository] : insert-only categorization records, one per (user, channel)
//
// Storage constraints carry the invariants: UNIQUE(user_id, name) on categories, UNIQUE(user_id, channel_id)
// on subscriptions, and a composite foreign key tying a record's category to the same user.
// Violations come back as [shared.DuplicateNameError], [shared.AlreadyCategorizedError] and
// [shared.InvalidCategoryError].
//
// Timestamps come from an injectable [Clock] so tests can pin ordering.
package repositories
