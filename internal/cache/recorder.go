package cache

import (
	"context"
	"errors"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/storage"
)

// Recorder fans an action out to the recent list, pub/sub and the history
// store. Any of them may be nil. Every sink is attempted; errors are joined.
type Recorder struct {
	recent    storage.ActionCache
	publisher storage.ActionPublisher
	store     storage.ActionStore
}

func NewRecorder(recent storage.ActionCache, publisher storage.ActionPublisher, store storage.ActionStore) *Recorder {
	return &Recorder{recent: recent, publisher: publisher, store: store}
}

func (r *Recorder) RecordAction(ctx context.Context, ev *models.FarmActionEvent) error {
	var errs []error
	if r.recent != nil {
		if err := r.recent.AddRecentAction(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if r.publisher != nil {
		if err := r.publisher.PublishAction(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if r.store != nil {
		if err := r.store.InsertAction(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
