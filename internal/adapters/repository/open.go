package repository

import (
	"context"
	"fmt"
	"time"
)

// Open builds the configured backend, wrapped in a report cache when ttl is
// positive. driver is memory, sqlite or postgres.
func Open(ctx context.Context, driver, dsn string, ttl time.Duration) (Store, error) {
	var inner Store
	switch driver {
	case "", backendMemory:
		inner = NewMemoryStore()
	case DriverSQLite, DriverPostgres:
		s, err := OpenSQL(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		inner = s
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return NewCachedStore(inner, ttl), nil
}
