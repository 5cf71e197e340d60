package config

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// WaitForPostgres pings the database with exponential backoff so the service
// survives the store coming up after it.
func WaitForPostgres(ctx context.Context, db *sql.DB) error {
	operation := func() (struct{}, error) {
		if err := db.PingContext(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to connect to Postgres. Retrying...")
			return struct{}{}, err
		}
		return struct{}{}, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	maxRetries := uint(5)
	_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(maxRetries))
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Msg("Successfully connected to Postgres")
	return nil
}
