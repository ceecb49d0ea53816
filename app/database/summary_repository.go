package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLSummaryRepository struct {
	db    *DB
	limit int
}

func NewSummaryRepository(db *DB, limit int) *SQLSummaryRepository {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	return &SQLSummaryRepository{db: db, limit: limit}
}

func (r *SQLSummaryRepository) GetSummary(articleID string) (Summary, error) {
	var s Summary
	var createdAt int64
	err := r.db.QueryRow(`
		SELECT article_id, content, model, prompt_tokens, completion_tokens, total_tokens, created_at
		FROM summaries WHERE article_id = ?
	`, articleID).Scan(&s.ArticleID, &s.Content, &s.Model,
		&s.PromptTokens, &s.CompletionTokens, &s.TotalTokens, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Summary{}, ErrNotFound
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to get summary: %w", err)
	}
	s.CreatedAt = fromUnixMilli(createdAt)
	return s, nil
}

func (r *SQLSummaryRepository) SaveSummary(s Summary) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO summaries (
			article_id, content, model, prompt_tokens, completion_tokens, total_tokens, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET
			content = excluded.content,
			model = excluded.model,
			prompt_tokens = excluded.prompt_tokens,
			completion_tokens = excluded.completion_tokens,
			total_tokens = excluded.total_tokens,
			created_at = excluded.created_at
	`, s.ArticleID, s.Content, s.Model, s.PromptTokens, s.CompletionTokens, s.TotalTokens,
		unixMilli(s.CreatedAt)); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	if err := truncate(tx, "summaries", "article_id", "created_at", r.limit); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLSummaryRepository) DeleteSummary(articleID string) error {
	res, err := r.db.Exec(`DELETE FROM summaries WHERE article_id = ?`, articleID)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeOlderThan deletes summaries created before cutoff and returns how many were removed.
func (r *SQLSummaryRepository) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM summaries WHERE created_at < ?`, unixMilli(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to purge summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged summaries: %w", err)
	}
	return n, nil
}
