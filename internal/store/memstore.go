package store

import (
	"context"
	"sync"

	"github.com/nvidales/chess-server/pkg/gamedto"
)

// memstore is a development and test Store used when no database is
// configured.
type memstore struct {
	mu sync.RWMutex

	games   map[string]*gamedto.CompletedGame
	ratings map[int64]int
}

func NewMemoryStore() *memstore {
	return &memstore{
		games:   make(map[string]*gamedto.CompletedGame),
		ratings: make(map[int64]int),
	}
}

func (m *memstore) SaveCompletedGame(_ context.Context, rec *gamedto.CompletedGame) error {
	if rec == nil {
		return ErrDuplicateGame
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[rec.GameID]; exists {
		return ErrDuplicateGame
	}
	copied := *rec
	m.games[rec.GameID] = &copied
	return nil
}

func (m *memstore) LoadRating(_ context.Context, playerID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elo, ok := m.ratings[playerID]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	return elo, nil
}

func (m *memstore) UpdateRating(_ context.Context, playerID int64, rating int) error {
	m.mu.Lock()
	m.ratings[playerID] = rating
	m.mu.Unlock()
	return nil
}

// Game returns the stored record for tests.
func (m *memstore) Game(gameID string) *gamedto.CompletedGame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[gameID]; ok {
		copied := *g
		return &copied
	}
	return nil
}
