package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytcat/internal/shared"
)

// Clock returns the current time. Repositories stamp created_at/updated_at with it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now() }

// stamp returns the clock's time in UTC, truncated to the precision both supported databases keep.
func stamp(c Clock) time.Time {
	if c == nil {
		c = systemClock
	}
	return c().UTC().Truncate(time.Microsecond)
}

// queryError converts [sql.ErrNoRows] into a [shared.NotFoundError] and wraps any other failure.
func queryError(err error, resource string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &shared.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("failed to query %s: %w", resource, err)
}
