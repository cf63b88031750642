package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig      = errors.New("configuration not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	// Authentication errors
	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")

	// API and service errors
	ErrAPIRequest        = errors.New("API request failed")
	ErrFetchFailed       = errors.New("subscription fetch failed")
	ErrPageLimitExceeded = errors.New("page limit exceeded")
	ErrRepeatedCursor    = errors.New("page cursor did not advance")

	// Storage and domain errors
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("category name already exists")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrAlreadyCategorized = errors.New("subscription already categorized")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// FetchError reports a failed subscription fetch.
//
// Retrieved is the number of items collected before the failure; those items are discarded.
type FetchError struct {
	Page      int
	Retrieved int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed on page %d after %d items: %v", e.Page, e.Retrieved, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// DuplicateNameError is returned when a user already owns a category with the same name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("category %q already exists", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// InvalidCategoryError is returned when a category id does not resolve to a category owned by the acting user.
type InvalidCategoryError struct {
	CategoryID int64
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("category %d does not exist", e.CategoryID)
}

func (e *InvalidCategoryError) Is(target error) bool { return target == ErrInvalidCategory }

// AlreadyCategorizedError is returned when a channel already has a categorization row for the user.
type AlreadyCategorizedError struct {
	ChannelID string
}

func (e *AlreadyCategorizedError) Error() string {
	return fmt.Sprintf("channel %s is already categorized", e.ChannelID)
}

func (e *AlreadyCategorizedError) Is(target error) bool { return target == ErrAlreadyCategorized }

// NotFoundError is returned by lookups that match no row visible to the caller.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
