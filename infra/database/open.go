package database

import "imagematch/pkg/config"

// Open connects to the store selected by DATABASE_DRIVER.
func Open(cfg *config.AppConfig) (*Repository, error) {
	dialect, err := ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		return NewSqliteRepository(cfg.SQLitePath)
	}

	return NewPgRepository(PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUsername,
		Password: cfg.PostgresPassword,
		Database: cfg.PostgresDatabase,
		SSLMode:  cfg.PostgresSSLMode,
	})
}
