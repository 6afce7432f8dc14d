package namecache

import (
	"context"
	"fmt"
	"log/slog"
)

// Directory looks display names up at the source.
type Directory interface {
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// Resolver answers display names from the cache, then the directory, then a
// placeholder. It never fails.
type Resolver struct {
	cache     Cache
	directory Directory
}

func NewResolver(cache Cache, directory Directory) *Resolver {
	return &Resolver{
		cache:     cache,
		directory: directory,
	}
}

// Placeholder is the name used when none can be resolved.
func Placeholder(userID int64) string {
	return fmt.Sprintf("User %d", userID)
}

// Resolve answers fresh cache entries directly. Otherwise it asks the
// directory and, when that fails, serves the stale cached name before
// falling back to the placeholder.
func (r *Resolver) Resolve(ctx context.Context, userID int64) string {
	cached, found := r.cache.Get(ctx, userID)
	if found && !cached.Stale && cached.Name != "" {
		return cached.Name
	}

	name, err := r.directory.DisplayName(ctx, userID)
	if err != nil || name == "" {
		if found && cached.Name != "" {
			return cached.Name
		}
		if err != nil {
			slog.DebugContext(ctx, "display name unavailable, using placeholder",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return Placeholder(userID)
	}

	r.cache.Set(ctx, userID, name)
	return name
}
