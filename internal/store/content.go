package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lebbnb/apiserver/types"
)

// ContentRepository handles the home and about page singletons. Each table
// holds a single row (id = 1) whose body is stored as jsonb.
type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) GetHome(ctx context.Context) (types.HomeContent, error) {
	const query = `SELECT body, updated_at FROM home_content WHERE id = 1`
	var content types.HomeContent
	if err := r.getSingleton(ctx, query, &content, &content.UpdatedAt); err != nil {
		return types.HomeContent{}, err
	}
	return content, nil
}

func (r *ContentRepository) UpsertHome(ctx context.Context, content types.HomeContent) (types.HomeContent, error) {
	content.UpdatedAt = time.Now()
	const query = `
		INSERT INTO home_content (id, body, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
	if err := r.upsertSingleton(ctx, query, content, content.UpdatedAt); err != nil {
		return types.HomeContent{}, err
	}
	return content, nil
}

func (r *ContentRepository) GetAbout(ctx context.Context) (types.AboutContent, error) {
	const query = `SELECT body, updated_at FROM about_content WHERE id = 1`
	var content types.AboutContent
	if err := r.getSingleton(ctx, query, &content, &content.UpdatedAt); err != nil {
		return types.AboutContent{}, err
	}
	return content, nil
}

func (r *ContentRepository) UpsertAbout(ctx context.Context, content types.AboutContent) (types.AboutContent, error) {
	content.UpdatedAt = time.Now()
	const query = `
		INSERT INTO about_content (id, body, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
	if err := r.upsertSingleton(ctx, query, content, content.UpdatedAt); err != nil {
		return types.AboutContent{}, err
	}
	return content, nil
}

func (r *ContentRepository) getSingleton(ctx context.Context, query string, target any, updatedAt *time.Time) error {
	var body []byte
	if err := r.db.QueryRowContext(ctx, query).Scan(&body, updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(body, target)
}

func (r *ContentRepository) upsertSingleton(ctx context.Context, query string, content any, updatedAt time.Time) error {
	body, err := json.Marshal(content)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, body, updatedAt)
	return err
}
