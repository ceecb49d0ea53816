package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lysyi3m/newsreader/app/news"
)

var ErrInvalidCategories = errors.New("invalid category selection")

type SQLCategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *SQLCategoryRepository {
	return &SQLCategoryRepository{db: db}
}

// GetCategories returns the selected categories in display order.
// Every category is selected until the first SetCategories call.
func (r *SQLCategoryRepository) GetCategories() ([]news.Category, error) {
	rows, err := r.db.Query(`SELECT category FROM category_prefs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []news.Category
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, news.Category(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}

	if len(categories) == 0 {
		return news.AllCategories(), nil
	}
	return categories, nil
}

func (r *SQLCategoryRepository) SetCategories(categories []news.Category) error {
	if len(categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", ErrInvalidCategories)
	}
	seen := make(map[news.Category]bool, len(categories))
	for _, c := range categories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidCategories, c)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCategories, c)
		}
		seen[c] = true
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM category_prefs`); err != nil {
		return fmt.Errorf("failed to reset categories: %w", err)
	}
	for i, c := range categories {
		if _, err := tx.Exec(`INSERT INTO category_prefs (position, category) VALUES (?, ?)`, i, string(c)); err != nil {
			return fmt.Errorf("failed to store category %s: %w", c, err)
		}
	}

	return tx.Commit()
}

type SQLProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *SQLProfileRepository {
	return &SQLProfileRepository{db: db}
}

func (r *SQLProfileRepository) GetProfile() (Profile, error) {
	var p Profile
	err := r.db.QueryRow(`
		SELECT nickname, gender, birthday, signature, dark_theme, font_scale
		FROM profile WHERE id = 1
	`).Scan(&p.Nickname, &p.Gender, &p.Birthday, &p.Signature, &p.DarkTheme, &p.FontScale)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultProfile(), nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

func (r *SQLProfileRepository) UpdateProfile(p Profile) error {
	if p.FontScale <= 0 {
		p.FontScale = DefaultProfile().FontScale
	}
	if _, err := r.db.Exec(`
		INSERT INTO profile (id, nickname, gender, birthday, signature, dark_theme, font_scale)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			nickname = excluded.nickname,
			gender = excluded.gender,
			birthday = excluded.birthday,
			signature = excluded.signature,
			dark_theme = excluded.dark_theme,
			font_scale = excluded.font_scale
	`, p.Nickname, p.Gender, p.Birthday, p.Signature, p.DarkTheme, p.FontScale); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
