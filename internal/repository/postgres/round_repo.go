package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

type RoundRepo struct {
	DB *sql.DB
}

func NewRoundRepo(db *sql.DB) *RoundRepo {
	return &RoundRepo{DB: db}
}

const upsertRound = `
	INSERT INTO rounds (table_id, round, status, winner_token, winning_line, tokens, move_count, duration_seconds, board_state, started_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (table_id, round) DO UPDATE SET
		status = EXCLUDED.status,
		winner_token = EXCLUDED.winner_token,
		winning_line = EXCLUDED.winning_line,
		move_count = EXCLUDED.move_count,
		duration_seconds = EXCLUDED.duration_seconds,
		board_state = EXCLUDED.board_state,
		finished_at = EXCLUDED.finished_at;
	`

// SaveRound archives a finished round. Saving the same round twice updates it.
func (r *RoundRepo) SaveRound(ctx context.Context, rec domain.RoundRecord) error {
	boardJSON, err := json.Marshal(rec.Board)
	if err != nil {
		return errors.Wrap(err, "failed to marshal board state")
	}
	tokensJSON, err := json.Marshal(rec.Tokens)
	if err != nil {
		return errors.Wrap(err, "failed to marshal tokens")
	}

	var line sql.NullString
	if rec.WinningLine != nil {
		lineJSON, err := json.Marshal(rec.WinningLine)
		if err != nil {
			return errors.Wrap(err, "failed to marshal winning line")
		}
		line = sql.NullString{String: string(lineJSON), Valid: true}
	}

	var winner sql.NullString
	if rec.Winner != domain.NoToken {
		winner = sql.NullString{String: string(rec.Winner), Valid: true}
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, upsertRound,
		rec.TableID, rec.Round, string(rec.Status), winner, line, tokensJSON,
		rec.MoveCount, rec.DurationSeconds(), boardJSON, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert round %s#%d", rec.TableID, rec.Round)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

const selectRounds = `
	SELECT table_id, round, status, winner_token, winning_line, tokens, move_count, board_state, started_at, finished_at
	FROM rounds
	WHERE table_id = $1
	ORDER BY round DESC
	LIMIT $2;
	`

// ListRounds returns a table's archived rounds, newest first.
func (r *RoundRepo) ListRounds(ctx context.Context, tableID string, limit int) ([]domain.RoundRecord, error) {
	rows, err := r.DB.QueryContext(ctx, selectRounds, tableID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query rounds")
	}
	defer rows.Close()

	var rounds []domain.RoundRecord
	for rows.Next() {
		var rec domain.RoundRecord
		var status string
		var winner sql.NullString
		var lineJSON, tokensJSON, boardJSON []byte

		err := rows.Scan(&rec.TableID, &rec.Round, &status, &winner, &lineJSON,
			&tokensJSON, &rec.MoveCount, &boardJSON, &rec.StartedAt, &rec.FinishedAt)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan round row")
		}

		rec.Status = domain.GameStatus(status)
		if winner.Valid {
			rec.Winner = domain.Token(winner.String)
		}
		if len(lineJSON) > 0 {
			rec.WinningLine = &domain.Line{}
			if err := json.Unmarshal(lineJSON, rec.WinningLine); err != nil {
				return nil, errors.Wrap(err, "failed to unmarshal winning line")
			}
		}
		if err := json.Unmarshal(tokensJSON, &rec.Tokens); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal tokens")
		}
		if err := json.Unmarshal(boardJSON, &rec.Board); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal board state")
		}

		rounds = append(rounds, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate rounds")
	}
	return rounds, nil
}
