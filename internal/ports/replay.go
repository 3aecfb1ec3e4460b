package ports

import (
	"context"
	"errors"

	"whist/internal/app"
)

var ErrReplayNotFound = errors.New("replay not found")

// StoredReplay is a finished game's replay record with its audit token.
type StoredReplay struct {
	Record app.ReplayRecord `json:"record"`
	Token  string           `json:"token"`
}

// ReplayStore persists finished games so they can be replayed and audited.
type ReplayStore interface {
	// SaveReplay stores the record under its game id. Saving the same game
	// twice is rejected by implementations that enforce write-once.
	SaveReplay(ctx context.Context, replay StoredReplay) error

	// LoadReplay returns ErrReplayNotFound when no replay exists for gameID.
	LoadReplay(ctx context.Context, gameID string) (StoredReplay, error)
}
