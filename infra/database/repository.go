package database

import (
	"context"
	"database/sql"
	"fmt"

	"imagematch/domain"

	"github.com/jmoiron/sqlx"
)

const imageColumns = `id, zillow_id, url, category`

// Repository is the Image Store. It only depends on sqlx, so the same queries
// run against Postgres and SQLite; placeholders are written as ? and rebound
// for the driver in use.
type Repository struct {
	db      *sqlx.DB
	dialect Dialect
}

func NewRepository(db *sqlx.DB, dialect Dialect) *Repository {
	return &Repository{db: db, dialect: dialect}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s schema: %w", r.dialect, err)
		}
	}
	return nil
}

// GetPoolStats returns current connection pool statistics
func (r *Repository) GetPoolStats() map[string]interface{} {
	stats := r.db.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

func (r *Repository) CreateImage(ctx context.Context, zillowID, url string) (domain.Image, error) {
	var i domain.Image
	query := r.db.Rebind(`
		INSERT INTO images (zillow_id, url)
		VALUES (?, ?)
		RETURNING ` + imageColumns)

	err := r.db.GetContext(ctx, &i, query, zillowID, url)
	if err != nil {
		return i, err
	}

	return i, nil
}

func (r *Repository) GetImage(ctx context.Context, id int64) (domain.Image, error) {
	var i domain.Image
	query := r.db.Rebind(`SELECT ` + imageColumns + ` FROM images WHERE id = ?`)

	err := r.db.GetContext(ctx, &i, query, id)
	if err != nil {
		return i, err
	}

	return i, nil
}

func (r *Repository) GetUnlabeledImages(ctx context.Context, limit int) ([]domain.Image, error) {
	images := make([]domain.Image, 0, limit)
	query := r.db.Rebind(`SELECT ` + imageColumns + ` FROM images WHERE category IS NULL ORDER BY id LIMIT ?`)

	err := r.db.SelectContext(ctx, &images, query, limit)
	if err != nil {
		return nil, err
	}

	return images, nil
}

// UpdateImageCategory writes the category column only. It returns
// sql.ErrNoRows when no image has the given id.
func (r *Repository) UpdateImageCategory(ctx context.Context, id int64, category domain.Category) error {
	query := r.db.Rebind(`UPDATE images SET category = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, category, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// EachLabeledImage streams every labeled image in id order. Iteration stops at
// the first error returned by fn.
func (r *Repository) EachLabeledImage(ctx context.Context, fn func(domain.Image) error) error {
	query := `SELECT ` + imageColumns + ` FROM images WHERE category IS NOT NULL ORDER BY id`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i domain.Image
		if err := rows.StructScan(&i); err != nil {
			return err
		}
		if err := fn(i); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (r *Repository) CountUnlabeledImages(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM images WHERE category IS NULL`

	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *Repository) CountImagesByCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	counts := make([]domain.CategoryCount, 0)
	query := `
		SELECT category, COUNT(*) AS count
		FROM images
		WHERE category IS NOT NULL
		GROUP BY category
		ORDER BY category`

	err := r.db.SelectContext(ctx, &counts, query)
	if err != nil {
		return nil, err
	}

	return counts, nil
}
