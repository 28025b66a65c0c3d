package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NewPostgres creates a new PostgreSQL connection pool
func NewPostgres(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return db, nil
}

// ClosePostgres closes the database connection
func ClosePostgres(db *sqlx.DB) {
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL connection")
		} else {
			log.Info().Msg("PostgreSQL connection closed")
		}
	}
}
