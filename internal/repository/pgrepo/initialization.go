package pgrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-credits/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	connectMaxAttempts   = 30
	connectRetryInterval = 3 * time.Second
)

// Connect открывает пул соединений с повторными попытками и применяет миграции.
// Пустой migrationsDir означает миграции, вшитые в бинарник.
func Connect(ctx context.Context, migrationsDir, dsn string, l logrus.FieldLogger) (*pgxpool.Pool, error) {
	var attempts uint
	for {
		conn, connErr := newPostgresConnection(ctx, dsn)
		if connErr == nil {
			if err := db.Migrate(dsn, migrationsDir); err != nil {
				conn.Close()
				return nil, err //nolint:wrapcheck
			}
			return conn, nil
		}

		attempts++
		if attempts >= connectMaxAttempts {
			return nil, fmt.Errorf("init postgres connection after %d attempts: %w", attempts, connErr)
		}
		l.WithError(connErr).
			WithField("CurrentAttempt", fmt.Sprintf("#%d / %d", attempts, connectMaxAttempts)).
			Warnf("init postgres connection error, retrying in %.f seconds", connectRetryInterval.Seconds())

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("init postgres connection: %w", ctx.Err())
		case <-time.After(connectRetryInterval):
		}
	}
}

func newPostgresConnection(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, confErr := pgxpool.ParseConfig(dsn)
	if confErr != nil {
		return nil, fmt.Errorf("parse postgres config: %s", confErr.Error())
	}
	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return nil, fmt.Errorf("failed to create pool: %s", poolErr.Error())
	}

	// Проверяем, что соединение работает (Ping)
	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %s", pingErr.Error())
	}

	return pool, nil
}
