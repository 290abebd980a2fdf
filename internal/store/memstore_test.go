package store

import (
	"context"
	"errors"
	"testing"

	"github.com/nvidales/chess-server/pkg/gamedto"
)

func TestMemoryStoreSaveAndDuplicate(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	rec := &gamedto.CompletedGame{GameID: "g1", Outcome: "DRAW", TotalMoves: 4}
	if err := ms.SaveCompletedGame(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ms.SaveCompletedGame(ctx, rec); !errors.Is(err, ErrDuplicateGame) {
		t.Fatalf("duplicate save: %v", err)
	}

	got := ms.Game("g1")
	if got == nil || got.Outcome != "DRAW" || got.TotalMoves != 4 {
		t.Fatalf("stored record = %+v", got)
	}
	if ms.Game("missing") != nil {
		t.Fatalf("unknown game id should return nil")
	}
}

func TestMemoryStoreRatings(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	if _, err := ms.LoadRating(ctx, 7); !errors.Is(err, ErrPlayerNotFound) {
		t.Fatalf("load unknown player: %v", err)
	}
	if err := ms.UpdateRating(ctx, 7, 1234); err != nil {
		t.Fatalf("update: %v", err)
	}
	r, err := ms.LoadRating(ctx, 7)
	if err != nil || r != 1234 {
		t.Fatalf("load = %d, %v", r, err)
	}
}
