package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/nvidales/chess-server/pkg/gamedto"
)

// Repository is the postgres-backed Store.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) SaveCompletedGame(ctx context.Context, rec *gamedto.CompletedGame) error {
	if rec == nil {
		return fmt.Errorf("nil completed game payload")
	}

	const query = `
		INSERT INTO chess_games (
			game_id,
			white_player_id,
			white_elo_before,
			white_elo_after,
			black_player_id,
			black_elo_before,
			black_elo_after,
			elo_change,
			total_moves,
			moves_history,
			result,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (game_id) DO NOTHING
		RETURNING game_id`

	var id sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		query,
		rec.GameID,
		rec.WhitePlayerID,
		rec.WhiteEloBefore,
		rec.WhiteEloAfter,
		rec.BlackPlayerID,
		rec.BlackEloBefore,
		rec.BlackEloAfter,
		rec.EloChange,
		rec.TotalMoves,
		rec.MovesHistory,
		rec.Outcome,
		rec.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return ErrDuplicateGame
	}
	if err != nil {
		return fmt.Errorf("insert completed game: %w", err)
	}
	return nil
}

func (r *Repository) LoadRating(ctx context.Context, playerID int64) (int, error) {
	const query = `SELECT elo FROM players WHERE id = $1`

	var elo int
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&elo)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("select player rating: %w", err)
	}
	return elo, nil
}

func (r *Repository) UpdateRating(ctx context.Context, playerID int64, rating int) error {
	const query = `UPDATE players SET elo = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, playerID, rating)
	if err != nil {
		return fmt.Errorf("update player rating: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPlayerNotFound
	}
	return nil
}
