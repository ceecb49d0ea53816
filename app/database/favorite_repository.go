package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

type SQLFavoriteRepository struct {
	db    *DB
	limit int
}

func NewFavoriteRepository(db *DB, limit int) *SQLFavoriteRepository {
	if limit <= 0 {
		limit = DefaultFavoriteLimit
	}
	return &SQLFavoriteRepository{db: db, limit: limit}
}

func (r *SQLFavoriteRepository) AddFavorite(article news.Article, createdAt time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insert(tx, article, createdAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLFavoriteRepository) RemoveFavorite(articleID string) error {
	if _, err := r.db.Exec(`DELETE FROM favorites WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ToggleFavorite flips the favorite state of article and reports the new state.
// The read and the write are separate statements: two concurrent toggles of
// the same article both observe the same prior state and the last write wins.
func (r *SQLFavoriteRepository) ToggleFavorite(article news.Article, at time.Time) (bool, error) {
	exists, err := r.IsFavorite(article.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, r.RemoveFavorite(article.ID)
	}
	return true, r.AddFavorite(article, at)
}

func (r *SQLFavoriteRepository) IsFavorite(articleID string) (bool, error) {
	var one int
	err := r.db.QueryRow(`SELECT 1 FROM favorites WHERE article_id = ?`, articleID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return true, nil
}

func (r *SQLFavoriteRepository) ListFavorites(limit, offset int) ([]Favorite, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT article, created_at FROM favorites
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var payload string
		var createdAt int64
		if err := rows.Scan(&payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		var f Favorite
		if err := json.Unmarshal([]byte(payload), &f.Article); err != nil {
			return nil, fmt.Errorf("failed to decode favorite article: %w", err)
		}
		f.CreatedAt = fromUnixMilli(createdAt)
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating favorite rows: %w", err)
	}

	return favorites, nil
}

func (r *SQLFavoriteRepository) insert(tx *sql.Tx, article news.Article, createdAt time.Time) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("failed to encode article: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO favorites (article_id, article, created_at) VALUES (?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET article = excluded.article
	`, article.ID, string(payload), unixMilli(createdAt)); err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}

	return truncate(tx, "favorites", "article_id", "created_at", r.limit)
}
