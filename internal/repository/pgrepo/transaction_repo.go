package pgrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, user_id, amount, type::text, status::text, payment_id, payment_provider,
	description, metadata, created_at, updated_at`

type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

// Create добавляет запись в журнал транзакций. Повтор внешней ссылки (provider, payment_id)
// возвращает domain.ErrDuplicateKey.
func (t *TransactionRepository) Create(
	ctx context.Context,
	args repoargs.CreateTransaction,
) (*domain.Transaction, error) {
	metadata, mErr := encodeMetadata(args.Metadata)
	if mErr != nil {
		return nil, fmt.Errorf("[repository/creating transaction] %w: %s", domain.ErrUnknown, mErr.Error())
	}

	row := t.conn.QueryRow(ctx,
		`INSERT INTO transactions
			(id, user_id, amount, type, status, payment_id, payment_provider, description, metadata)
		VALUES ($1, $2, $3, $4::transaction_type, $5::transaction_status, $6, $7, $8, $9::jsonb)
		RETURNING `+transactionColumns,
		uuid.New(), args.UserID, args.Amount, string(args.Type), string(args.Status),
		nullIfEmpty(args.PaymentID), nullIfEmpty(args.PaymentProvider), args.Description, metadata,
	)
	trans, err := scanTransaction(row)
	if err != nil {
		return nil, convertErr(err, "creating %s transaction for user %d", args.Type, args.UserID)
	}
	return trans, nil
}

// UpdateStatusByPaymentID переводит транзакции с внешней ссылкой paymentID из статуса from в статус to.
// Возвращает количество измененных строк: 0 означает, что ссылка неизвестна или уже обработана.
func (t *TransactionRepository) UpdateStatusByPaymentID(
	ctx context.Context,
	paymentID string,
	from, to domain.TransactionStatus,
) (int64, error) {
	tag, err := t.conn.Exec(ctx,
		`UPDATE transactions SET status = $3::transaction_status
		WHERE payment_id = $1 AND status = $2::transaction_status`,
		paymentID, string(from), string(to),
	)
	if err != nil {
		return 0, convertErr(err, "updating status of payment %s from %s to %s", paymentID, from, to)
	}
	return tag.RowsAffected(), nil
}

// UpdateStatusReturningOwners делает то же, что UpdateStatusByPaymentID, и возвращает user_id
// каждой измененной строки. Пустой список означает, что ссылка неизвестна или уже обработана.
func (t *TransactionRepository) UpdateStatusReturningOwners(
	ctx context.Context,
	paymentID string,
	from, to domain.TransactionStatus,
) ([]int64, error) {
	rows, err := t.conn.Query(ctx,
		`UPDATE transactions SET status = $3::transaction_status
		WHERE payment_id = $1 AND status = $2::transaction_status
		RETURNING user_id`,
		paymentID, string(from), string(to),
	)
	if err != nil {
		return nil, convertErr(err, "updating status of payment %s from %s to %s", paymentID, from, to)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, convertErr(err, "updating status of payment %s from %s to %s", paymentID, from, to)
	}
	return owners, nil
}

// ListByUser возвращает последние limit транзакций пользователя, новые первыми.
func (t *TransactionRepository) ListByUser(
	ctx context.Context,
	userID int64,
	limit uint,
) ([]domain.Transaction, error) {
	rows, err := t.conn.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, convertErr(err, "listing transactions of user %d", userID)
	}
	list, collectErr := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		trans, scanErr := scanTransaction(row)
		if scanErr != nil {
			return domain.Transaction{}, scanErr
		}
		return *trans, nil
	})
	if collectErr != nil {
		return nil, convertErr(collectErr, "listing transactions of user %d", userID)
	}
	return list, nil
}

// ListStalePending возвращает незавершенные покупки с внешней ссылкой, созданные раньше olderThan.
// Старые первыми.
func (t *TransactionRepository) ListStalePending(
	ctx context.Context,
	olderThan time.Time,
	limit uint,
) ([]domain.Transaction, error) {
	rows, err := t.conn.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE status = 'PENDING' AND type = 'CREDIT_PURCHASE'
			AND payment_id IS NOT NULL AND created_at < $1
		ORDER BY created_at
		LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, convertErr(err, "listing stale pending transactions")
	}
	list, collectErr := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Transaction, error) {
		trans, scanErr := scanTransaction(row)
		if scanErr != nil {
			return domain.Transaction{}, scanErr
		}
		return *trans, nil
	})
	if collectErr != nil {
		return nil, convertErr(collectErr, "listing stale pending transactions")
	}
	return list, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		trans       domain.Transaction
		transType   string
		transStatus string
		metadata    []byte
	)
	if err := row.Scan(
		&trans.ID,
		&trans.UserID,
		&trans.Amount,
		&transType,
		&transStatus,
		&trans.PaymentID,
		&trans.PaymentProvider,
		&trans.Description,
		&metadata,
		&trans.CreatedAt,
		&trans.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	trans.Type = domain.TransactionType(transType)
	trans.Status = domain.TransactionStatus(transStatus)

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &trans.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &trans, nil
}

func encodeMetadata(m domain.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

// nullIfEmpty пустая ссылка хранится как NULL, иначе уникальный индекс по ссылке склеит все списания.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
