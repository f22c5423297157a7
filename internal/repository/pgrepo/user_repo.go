package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = "id, credits, balance, created_at, updated_at"

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// GetUser возвращает пользователя по id или domain.ErrRecordNotFound.
func (u *UserRepository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "getting user %d", userID)
	}
	return user, nil
}

// ApplyCreditDelta атомарно прибавляет delta к кредитам пользователя, если результат не меньше minCredits.
// Проверка и изменение выполняются одним UPDATE, поэтому два конкурентных списания не могут пройти
// по одному и тому же остатку. Возвращает domain.ErrNotEnoughCredits, если условие не выполнено,
// и domain.ErrRecordNotFound, если пользователя нет.
func (u *UserRepository) ApplyCreditDelta(
	ctx context.Context,
	userID int64,
	delta int64,
	minCredits int64,
) (*domain.User, error) {
	row := u.conn.QueryRow(ctx,
		`UPDATE users SET credits = credits + $2, updated_at = now()
		WHERE id = $1 AND credits + $2 >= $3
		RETURNING `+userColumns,
		userID, delta, minCredits,
	)
	user, err := scanUser(row)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, convertErr(err, "applying credit delta %d to user %d", delta, userID)
	}
	if existsErr := u.ensureExists(ctx, userID); existsErr != nil {
		return nil, existsErr
	}
	return nil, fmt.Errorf("[repository/applying credit delta %d to user %d] %w", delta, userID, domain.ErrNotEnoughCredits)
}

// ApplyBalanceDelta атомарно прибавляет delta к денежному балансу, не допуская отрицательного значения.
// Возвращает domain.ErrNotEnoughBalance или domain.ErrRecordNotFound.
func (u *UserRepository) ApplyBalanceDelta(
	ctx context.Context,
	userID int64,
	delta decimal.Decimal,
) (*domain.User, error) {
	row := u.conn.QueryRow(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING `+userColumns,
		userID, delta,
	)
	user, err := scanUser(row)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, convertErr(err, "applying balance delta %s to user %d", delta, userID)
	}
	if existsErr := u.ensureExists(ctx, userID); existsErr != nil {
		return nil, existsErr
	}
	return nil, fmt.Errorf("[repository/applying balance delta %s to user %d] %w", delta, userID, domain.ErrNotEnoughBalance)
}

func (u *UserRepository) ensureExists(ctx context.Context, userID int64) error {
	var exists bool
	if err := u.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).
		Scan(&exists); err != nil {
		return convertErr(err, "checking user %d", userID)
	}
	if !exists {
		return convertErr(pgx.ErrNoRows, "checking user %d", userID)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Credits, &user.Balance, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &user, nil
}
