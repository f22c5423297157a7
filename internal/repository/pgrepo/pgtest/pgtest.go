// Package pgtest поднимает одноразовую базу PostgreSQL для интеграционных тестов.
package pgtest

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fsdevblog/groph-credits/internal/db"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DSNEnv переменная окружения с DSN сервера, на котором создаются тестовые базы.
const DSNEnv = "TEST_DATABASE_DSN"

const createAttempts = 5

// SkipIfNoDatabase пропускает тест, если DSNEnv не задана. Вызывается до suite.Run, чтобы
// SetupTest и TearDownTest наборов не запускались без базы.
func SkipIfNoDatabase(t testing.TB) {
	t.Helper()
	if os.Getenv(DSNEnv) == "" {
		t.Skipf("%s is not set", DSNEnv)
	}
}

// NewPool создает отдельную базу для теста t, применяет к ней миграции и возвращает пул.
// База удаляется по завершении теста. Если DSNEnv не задана, тест пропускается.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	SkipIfNoDatabase(t)
	baseDSN := os.Getenv(DSNEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, baseDSN)
	if err != nil {
		t.Fatalf("open admin pool: %v", err)
	}

	dbName := sanitizeForPgIdent(uniqueDBName("credits_test", t.Name()))
	for attempt := 1; attempt <= createAttempts; attempt++ {
		_, err = admin.Exec(ctx, fmt.Sprintf(`CREATE DATABASE "%s" WITH TEMPLATE template0 ENCODING 'UTF8'`, dbName))
		if err == nil {
			break
		}
		if !isUniqueViolation(err) || attempt == createAttempts {
			admin.Close()
			t.Fatalf("create database: %v", err)
		}
		dbName = sanitizeForPgIdent(uniqueDBName("credits_test", t.Name()))
	}

	testDSN, err := ReplaceDBInDSN(baseDSN, dbName)
	if err != nil {
		admin.Close()
		t.Fatalf("test dsn: %v", err)
	}

	if migrateErr := db.Migrate(testDSN, ""); migrateErr != nil {
		admin.Close()
		t.Fatalf("migrate: %v", migrateErr)
	}

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		admin.Close()
		t.Fatalf("open test pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()

		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer dcancel()
		_, _ = admin.Exec(dctx, fmt.Sprintf(`DROP DATABASE IF EXISTS "%s" WITH (FORCE)`, dbName))
		admin.Close()
	})

	return pool
}

// CreateUser вставляет пользователя с заданными кредитами и балансом и возвращает его id.
func CreateUser(t *testing.T, pool *pgxpool.Pool, credits int64, balance string) int64 {
	t.Helper()

	var id int64
	if err := pool.QueryRow(context.Background(),
		`INSERT INTO users (credits, balance) VALUES ($1, $2::numeric) RETURNING id`, credits, balance,
	).Scan(&id); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

// Exec выполняет произвольный SQL для подготовки данных.
func Exec(t *testing.T, pool *pgxpool.Pool, sql string, args ...any) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

// ReplaceDBInDSN заменяет имя базы в DSN формата URL.
func ReplaceDBInDSN(dsn, newDB string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	u.Path = "/" + newDB
	return u.String(), nil
}

func uniqueDBName(prefix, testName string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(testName))
	var rnd [6]byte
	_, _ = rand.Read(rnd[:])
	return fmt.Sprintf("%s_%08x_%s", prefix, h.Sum32(), hex.EncodeToString(rnd[:]))
}

func sanitizeForPgIdent(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_", "#", "_").Replace(s)
	if len(s) <= 63 {
		return s
	}
	return s[:31] + "_" + s[len(s)-31:]
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
