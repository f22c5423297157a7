package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode      = "23505"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	adminShutdownCode        = "57P01"
	connectionExceptionClass = "08"
)

// convertErr преобразует ошибку к стандартному виду для слоя репозитория.
// Добавляет форматированное сообщение контекста, тип бизнес-ошибки и оригинальное сообщение.
// Особенности:
//   - Для ошибок отсутствия данных (pgx.ErrNoRows) возвращает ErrRecordNotFound из domain.
//   - Для ошибок базы Postgres определяет дубликаты ключей (uniqueViolationCode) как ErrDuplicateKey из domain.
//   - Конфликты сериализации, дедлоки, обрывы соединения и таймауты возвращаются как ErrTransient:
//     операцию можно безопасно повторить.
//   - Все остальные ошибки возвращаются как ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	errType := domain.ErrUnknown

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		if isUniqueViolationErr(pgErr) {
			errType = domain.ErrDuplicateKey
		} else if isTransientPgErr(pgErr) {
			errType = domain.ErrTransient
		}
	case pgconn.SafeToRetry(err), pgconn.Timeout(err), errors.Is(err, context.DeadlineExceeded):
		errType = domain.ErrTransient
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}

func isUniqueViolationErr(err *pgconn.PgError) bool {
	return err.Code == uniqueViolationCode
}

func isTransientPgErr(err *pgconn.PgError) bool {
	switch err.Code {
	case serializationFailureCode, deadlockDetectedCode, adminShutdownCode:
		return true
	}
	return strings.HasPrefix(err.Code, connectionExceptionClass)
}
