package flags

import (
	"context"
	"errors"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
)

// PauseKey is the flag that pauses an action kind, e.g. "actions.harvest.paused".
func PauseKey(kind farm.ActionKind) string {
	return "actions." + string(kind) + ".paused"
}

// ActionPaused reports whether kind is paused. A missing flag means not paused.
func (s *Store) ActionPaused(ctx context.Context, kind farm.ActionKind) (bool, error) {
	f, err := s.Get(ctx, PauseKey(kind))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Value, nil
}

// SetActionPaused pauses or resumes kind.
func (s *Store) SetActionPaused(ctx context.Context, kind farm.ActionKind, paused bool) error {
	_, err := s.Upsert(ctx, PauseKey(kind), paused)
	return err
}
