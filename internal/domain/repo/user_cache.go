package repo

import (
	"context"
	"time"

	"github.com/contactbook/backend/internal/domain/model"
)

// UserCache is the short-TTL session cache keyed by username. It is an
// optimization only: callers must treat every error as a miss and fall
// back to the user repo. Correctness never depends on cache contents.
type UserCache interface {
	Get(ctx context.Context, username string) (model.Profile, bool, error)

	Set(ctx context.Context, p model.Profile, ttl time.Duration) error

	Delete(ctx context.Context, username string) error
}
