package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"exceltoquiz/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// DraftStore keeps a JSONB copy of every quiz created from an upload.
type DraftStore struct {
	pool *pgxpool.Pool
}

func NewDraftStore(pool *pgxpool.Pool) *DraftStore {
	return &DraftStore{pool: pool}
}

// SaveDraft upserts the draft sent to the backend for quizID.
func (s *DraftStore) SaveDraft(ctx context.Context, quizID string, draft domain.QuizDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_drafts (quiz_id, title, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (quiz_id) DO UPDATE SET title = EXCLUDED.title, data = EXCLUDED.data`,
		quizID, draft.Title, string(data))
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// GetDraft loads the stored draft for quizID.
func (s *DraftStore) GetDraft(ctx context.Context, quizID string) (domain.QuizDraft, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quiz_drafts WHERE quiz_id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDraft{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDraft{}, fmt.Errorf("load draft: %w", err)
	}
	var draft domain.QuizDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return domain.QuizDraft{}, fmt.Errorf("unmarshal draft: %w", err)
	}
	return draft, nil
}
