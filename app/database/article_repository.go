package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/newsreader/app/news"
)

// SQLArticleRepository caches articles fetched from the news API and imported feeds.
type SQLArticleRepository struct {
	db    *DB
	limit int
	now   func() time.Time
}

func NewArticleRepository(db *DB, limit int) *SQLArticleRepository {
	if limit <= 0 {
		limit = DefaultArticleLimit
	}
	return &SQLArticleRepository{db: db, limit: limit, now: time.Now}
}

// UpsertArticles stores articles and evicts the least recently fetched rows over the limit.
func (r *SQLArticleRepository) UpsertArticles(articles []news.Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (
			id, title, body, video, image, publish_time,
			category, publisher, keywords, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			video = excluded.video,
			image = excluded.image,
			publish_time = excluded.publish_time,
			category = excluded.category,
			publisher = excluded.publisher,
			keywords = excluded.keywords,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare article upsert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := unixMilli(r.now())
	for _, a := range articles {
		if a.ID == "" {
			continue
		}
		keywords, err := json.Marshal(a.Keywords)
		if err != nil {
			return fmt.Errorf("failed to encode keywords for %s: %w", a.ID, err)
		}
		if _, err := stmt.Exec(a.ID, a.Title, a.Body, a.Video, a.Image, a.PublishTime,
			string(a.Category), a.Publisher, string(keywords), fetchedAt); err != nil {
			return fmt.Errorf("failed to store article %s: %w", a.ID, err)
		}
	}

	if _, err := tx.Exec(`
		DELETE FROM articles WHERE id NOT IN (
			SELECT id FROM articles ORDER BY fetched_at DESC, rowid DESC LIMIT ?
		)
	`, r.limit); err != nil {
		return fmt.Errorf("failed to prune articles: %w", err)
	}

	return tx.Commit()
}

func (r *SQLArticleRepository) GetArticle(id string) (news.Article, error) {
	row := r.db.QueryRow(`
		SELECT id, title, body, video, image, publish_time, category, publisher, keywords
		FROM articles WHERE id = ?
	`, id)

	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return news.Article{}, ErrNotFound
	}
	if err != nil {
		return news.Article{}, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// SearchArticles returns cached articles matching q, newest publish time first.
func (r *SQLArticleRepository) SearchArticles(q ArticleQuery) ([]news.Article, error) {
	var where []string
	var args []any

	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		pattern := "%" + escapeLike(kw) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\' OR keywords LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.Since != "" {
		where = append(where, "publish_time >= ?")
		args = append(args, q.Since)
	}
	if q.Until != "" {
		where = append(where, "publish_time <= ?")
		args = append(args, q.Until)
	}

	query := `SELECT id, title, body, video, image, publish_time, category, publisher, keywords FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY publish_time DESC, id"

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(q.Offset, 0))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	var articles []news.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *SQLArticleRepository) CountArticles() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (news.Article, error) {
	var a news.Article
	var category, keywords string
	if err := s.Scan(&a.ID, &a.Title, &a.Body, &a.Video, &a.Image, &a.PublishTime,
		&category, &a.Publisher, &keywords); err != nil {
		return news.Article{}, err
	}
	a.Category = news.Category(category)
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &a.Keywords); err != nil {
			return news.Article{}, fmt.Errorf("failed to decode keywords: %w", err)
		}
	}
	return a, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
