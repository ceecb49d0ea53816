package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

type SQLHistoryRepository struct {
	db    *DB
	limit int
}

func NewHistoryRepository(db *DB, limit int) *SQLHistoryRepository {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &SQLHistoryRepository{db: db, limit: limit}
}

// RecordView stores a snapshot of the viewed article. Viewing the same article
// again refreshes its timestamp. The oldest entries beyond the limit are dropped.
func (r *SQLHistoryRepository) RecordView(article news.Article, viewedAt time.Time) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("failed to encode article: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO history (article_id, article, viewed_at) VALUES (?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET
			article = excluded.article,
			viewed_at = excluded.viewed_at
	`, article.ID, string(payload), unixMilli(viewedAt)); err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	if err := truncate(tx, "history", "article_id", "viewed_at", r.limit); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SQLHistoryRepository) ListHistory(limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT article, viewed_at FROM history
		ORDER BY viewed_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var payload string
		var viewedAt int64
		if err := rows.Scan(&payload, &viewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(payload), &entry.Article); err != nil {
			return nil, fmt.Errorf("failed to decode history article: %w", err)
		}
		entry.ViewedAt = fromUnixMilli(viewedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}

func (r *SQLHistoryRepository) DeleteHistory(articleID string) error {
	res, err := r.db.Exec(`DELETE FROM history WHERE article_id = ?`, articleID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLHistoryRepository) ClearHistory() error {
	if _, err := r.db.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// truncate keeps the newest limit rows of table ordered by column, oldest first out.
func truncate(e execer, table, key, column string, limit int) error {
	query := fmt.Sprintf(`
		DELETE FROM %[1]s WHERE %[2]s NOT IN (
			SELECT %[2]s FROM %[1]s ORDER BY %[3]s DESC, rowid DESC LIMIT ?
		)
	`, table, key, column)
	if _, err := e.Exec(query, limit); err != nil {
		return fmt.Errorf("failed to truncate %s: %w", table, err)
	}
	return nil
}
