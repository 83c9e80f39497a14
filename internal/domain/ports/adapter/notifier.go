package adapter

import (
	"context"

	"plant-advisor/internal/domain/model"
)

// ResultNotifier lets a consumer signal that a result has been stored so
// waiting producers can poll early instead of sleeping a full interval.
// Notifications are hints; the result store stays the source of truth.
type ResultNotifier interface {
	Notify(ctx context.Context, wt model.WorkType, id string) error
	// Subscribe returns a channel receiving ids with stored results for wt.
	// The channel is closed when ctx is done.
	Subscribe(ctx context.Context, wt model.WorkType) (<-chan string, error)
}
