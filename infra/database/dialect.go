package database

import "fmt"

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func ParseDialect(name string) (Dialect, error) {
	switch Dialect(name) {
	case Postgres, SQLite:
		return Dialect(name), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

const categoryCheck = `category IS NULL OR category IN ('Interior', 'Exterior', 'Garden', 'Land', 'Map', 'FloorPlan', 'View', 'Other')`

func (d Dialect) schema() []string {
	id := "id BIGSERIAL PRIMARY KEY"
	timestamp := "TIMESTAMPTZ"
	if d == SQLite {
		id = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		timestamp = "DATETIME"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS images (
			` + id + `,
			zillow_id VARCHAR(15) NOT NULL,
			url TEXT NOT NULL,
			category VARCHAR(15) NULL CHECK (` + categoryCheck + `),
			created_at ` + timestamp + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at ` + timestamp + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_category ON images (category)`,
	}
}
