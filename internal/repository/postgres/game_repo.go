package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/campaign-trail/internal/model"
)

const gameColumns = `id, name, creator_id, status, winner, board_size, max_roads, max_turns,
	phase_seconds, created_at, started_at, finished_at`

// GameRepo handles game and game_player database operations.
type GameRepo struct {
	db *sql.DB
}

// NewGameRepo creates a GameRepo.
func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{db: db}
}

func scanGame(s scanner) (*model.Game, error) {
	var g model.Game
	var winner sql.NullString
	if err := s.Scan(&g.ID, &g.Name, &g.CreatorID, &g.Status, &winner, &g.BoardSize, &g.MaxRoads, &g.MaxTurns,
		&g.PhaseSeconds, &g.CreatedAt, &g.StartedAt, &g.FinishedAt); err != nil {
		return nil, err
	}
	g.Winner = winner.String
	return &g, nil
}

// Create inserts a new game in waiting status. The caller supplies the ID.
func (r *GameRepo) Create(ctx context.Context, g *model.Game) (*model.Game, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO games (id, name, creator_id, board_size, max_roads, max_turns, phase_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+gameColumns,
		g.ID, g.Name, g.CreatorID, g.BoardSize, g.MaxRoads, g.MaxTurns, g.PhaseSeconds,
	)
	created, err := scanGame(row)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	return created, nil
}

// FindByID returns a game by ID with its players, or nil if absent.
func (r *GameRepo) FindByID(ctx context.Context, id string) (*model.Game, error) {
	g, err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}

	players, err := r.ListPlayers(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Players = players
	return g, nil
}

func (r *GameRepo) listGames(ctx context.Context, what, query string, args ...any) ([]model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s games: %w", what, err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// ListOpen returns games still waiting for a second player.
func (r *GameRepo) ListOpen(ctx context.Context) ([]model.Game, error) {
	return r.listGames(ctx, "open",
		`SELECT `+gameColumns+` FROM games WHERE status = 'waiting' ORDER BY created_at DESC LIMIT 50`)
}

// ListByUser returns all games a user sits in or created.
func (r *GameRepo) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	return r.listGames(ctx, "user",
		`SELECT `+gameColumns+` FROM games
		 WHERE creator_id = $1 OR id IN (SELECT game_id FROM game_players WHERE user_id = $1)
		 ORDER BY created_at DESC LIMIT 50`, userID)
}

// ListActive returns every game in active status with its players.
func (r *GameRepo) ListActive(ctx context.Context) ([]model.Game, error) {
	games, err := r.listGames(ctx, "active",
		`SELECT `+gameColumns+` FROM games WHERE status = 'active' ORDER BY started_at`)
	if err != nil {
		return nil, err
	}
	for i := range games {
		players, err := r.ListPlayers(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Players = players
	}
	return games, nil
}

// ListPlayers returns the seats of a game in join order.
func (r *GameRepo) ListPlayers(ctx context.Context, gameID string) ([]model.GamePlayer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT game_id, user_id, color, is_bot, joined_at
		 FROM game_players WHERE game_id = $1 ORDER BY joined_at`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []model.GamePlayer
	for rows.Next() {
		var p model.GamePlayer
		if err := rows.Scan(&p.GameID, &p.UserID, &p.Color, &p.IsBot, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// JoinGame seats a user with a color. The (game, color) uniqueness
// constraint rejects a second claim on the same seat.
func (r *GameRepo) JoinGame(ctx context.Context, gameID, userID, color string, isBot bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO game_players (game_id, user_id, color, is_bot) VALUES ($1, $2, $3, $4)`,
		gameID, userID, color, isBot)
	if err != nil {
		return fmt.Errorf("join game: %w", err)
	}
	return nil
}

// SetActive marks a waiting game as started.
func (r *GameRepo) SetActive(ctx context.Context, gameID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'active', started_at = now() WHERE id = $1 AND status = 'waiting'`, gameID)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set active: game %s is not waiting", gameID)
	}
	return nil
}

// SetFinished marks a game finished. An empty winner is stored as NULL.
func (r *GameRepo) SetFinished(ctx context.Context, gameID, winner string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = $2, finished_at = now() WHERE id = $1`,
		gameID, nullStr(winner))
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	return nil
}

// Delete removes a game and, by cascade, its seats, phases and actions.
func (r *GameRepo) Delete(ctx context.Context, gameID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, gameID); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
