package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"exceltoquiz/internal/app"
	"exceltoquiz/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultJournal records finished sessions locally, whether or not the
// backend accepted them.
type ResultJournal struct {
	pool *pgxpool.Pool
}

func NewResultJournal(pool *pgxpool.Pool) *ResultJournal {
	return &ResultJournal{pool: pool}
}

// Record stores entry once per session.
func (j *ResultJournal) Record(ctx context.Context, entry app.JournalEntry) error {
	data, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = j.pool.Exec(ctx,
		`INSERT INTO quiz_results
		   (session_id, quiz_id, participant_name, score, submitted, warning, timed_out, result, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)
		 ON CONFLICT (session_id) DO NOTHING`,
		entry.SessionID, entry.Result.QuizID, entry.Result.ParticipantName, entry.Result.Score,
		entry.Submitted, entry.Warning, entry.TimedOut, string(data), entry.FinishedAt)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first. A blank quizID means all quizzes.
func (j *ResultJournal) Recent(ctx context.Context, quizID string, limit int) ([]app.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.pool.Query(ctx,
		`SELECT session_id, submitted, warning, timed_out, result, finished_at
		   FROM quiz_results
		  WHERE $1 = '' OR quiz_id = $1
		  ORDER BY finished_at DESC, id DESC
		  LIMIT $2`,
		quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var entries []app.JournalEntry
	for rows.Next() {
		var (
			entry app.JournalEntry
			raw   []byte
		)
		if err := rows.Scan(&entry.SessionID, &entry.Submitted, &entry.Warning, &entry.TimedOut, &raw, &entry.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var result domain.Result
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		entry.Result = result
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
