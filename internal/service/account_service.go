package service

import (
	"context"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
)

const (
	DefaultTransactionsLimit uint = 20
	MaxTransactionsLimit     uint = 100
)

type AccountService struct {
	userRepo  UserRepository
	transRepo TransactionRepository
}

func NewAccountService(u uow.UOW) (*AccountService, error) {
	userRepo, err := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	transRepo, err := uow.GetRepositoryAs[TransactionRepository](u, uow.RepositoryName(repoargs.TransactionRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &AccountService{userRepo: userRepo, transRepo: transRepo}, nil
}

// GetAccount возвращает текущие кредиты и баланс пользователя.
func (a *AccountService) GetAccount(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := a.userRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, translateStoreErr(err, domain.ErrUserNotFound)
	}
	return user, nil
}

// ListTransactions возвращает последние транзакции пользователя. limit 0 означает DefaultTransactionsLimit.
func (a *AccountService) ListTransactions(ctx context.Context, userID int64, limit uint) ([]domain.Transaction, error) {
	switch {
	case limit == 0:
		limit = DefaultTransactionsLimit
	case limit > MaxTransactionsLimit:
		return nil, domain.NewValidationError("limit must be between 1 and %d", MaxTransactionsLimit)
	}
	list, err := a.transRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, translateStoreErr(err, nil)
	}
	return list, nil
}
