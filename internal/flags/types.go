package flags

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("flag not found")
	ErrInvalidKey = errors.New("invalid flag key")
)

// Flag is an operator toggle stored in Redis. Keys under "actions." gate
// farm actions, see PauseKey.
type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func isPauseKey(key string) bool {
	return strings.HasPrefix(key, "actions.") && strings.HasSuffix(key, ".paused")
}
