// Package tasks implements the write and read paths over a user's categorized subscriptions.
//
// # Categorization
//
// [Categorizer.Categorize] files one fetched channel under one of the user's categories (or none):
//
//  1. The channel id must be non-empty; a missing title falls back to the channel id
//  2. A category id must resolve to a category the same user owns, otherwise [shared.InvalidCategoryError]
//  3. A single insert persists the record; the storage UNIQUE(user_id, channel_id) constraint turns a
//     second attempt, concurrent or not, into [shared.AlreadyCategorizedError]
//
// Records are never updated or deleted, so re-filing a channel is not possible.
//
// [Categorizer.CategorizeAll] runs a batch of requests and reports each step on a progress channel.
// Updates use select with default so a slow reader never blocks the batch.
//
// # Queries
//
// [QueryService] lists a user's records newest first, either all of them joined with category names or
// only those in one category. Nothing another user owns is ever visible.
//
// [Overview] joins a live fetch from a [services.SubscriptionSource] with stored records so callers can see
// which channels still need a category.
package tasks
