package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lebbnb/apiserver/types"
	"github.com/lib/pq"
)

// PropertyRepository handles persistence for property listings.
type PropertyRepository struct {
	db *sql.DB
}

func NewPropertyRepository(db *sql.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) List(ctx context.Context, offset, limit int) ([]types.Property, int, error) {
	const countQuery = `SELECT COUNT(*) FROM properties`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT id, title, address, images, created_at, updated_at
		FROM properties
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	properties := []types.Property{}
	for rows.Next() {
		var property types.Property
		if err := rows.Scan(
			&property.ID,
			&property.Title,
			&property.Address,
			pq.Array(&property.Images),
			&property.CreatedAt,
			&property.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if property.Images == nil {
			property.Images = []string{}
		}
		properties = append(properties, property)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

func (r *PropertyRepository) Get(ctx context.Context, id int) (types.Property, error) {
	const query = `
		SELECT id, title, address, images, created_at, updated_at
		FROM properties
		WHERE id = $1`
	var property types.Property
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&property.ID,
		&property.Title,
		&property.Address,
		pq.Array(&property.Images),
		&property.CreatedAt,
		&property.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Property{}, ErrNotFound
		}
		return types.Property{}, err
	}
	if property.Images == nil {
		property.Images = []string{}
	}
	return property, nil
}

func (r *PropertyRepository) Create(ctx context.Context, property types.Property) (types.Property, error) {
	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now
	if property.Images == nil {
		property.Images = []string{}
	}

	const query = `
		INSERT INTO properties (title, address, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		property.Title,
		property.Address,
		pq.Array(property.Images),
		property.CreatedAt,
		property.UpdatedAt,
	).Scan(&property.ID); err != nil {
		return types.Property{}, err
	}
	return property, nil
}

func (r *PropertyRepository) Update(ctx context.Context, property types.Property) (types.Property, error) {
	property.UpdatedAt = time.Now()

	const query = `
		UPDATE properties
		SET title = $1,
			address = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		property.Title,
		property.Address,
		property.UpdatedAt,
		property.ID,
	)
	if err != nil {
		return types.Property{}, err
	}
	if err := checkAffected(result); err != nil {
		return types.Property{}, err
	}
	return r.Get(ctx, property.ID)
}

// SetImages replaces the ordered image key list for a property.
func (r *PropertyRepository) SetImages(ctx context.Context, id int, images []string) error {
	if images == nil {
		images = []string{}
	}
	const query = `
		UPDATE properties
		SET images = $1,
			updated_at = now()
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(images), id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *PropertyRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM properties WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
