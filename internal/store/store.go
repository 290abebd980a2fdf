// Package store persists completed games and player ratings. The
// session manager only talks to the Store interface; persistence
// failures never alter in-memory game outcomes.
package store

import (
	"context"
	"errors"

	"github.com/nvidales/chess-server/pkg/gamedto"
)

var (
	ErrDuplicateGame  = errors.New("completed game already recorded")
	ErrPlayerNotFound = errors.New("player not found")
)

type Store interface {
	SaveCompletedGame(ctx context.Context, rec *gamedto.CompletedGame) error
	LoadRating(ctx context.Context, playerID int64) (int, error)
	UpdateRating(ctx context.Context, playerID int64, rating int) error
}
