package service

import (
	"context"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type UserRepository interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	ApplyCreditDelta(ctx context.Context, userID int64, delta int64, minCredits int64) (*domain.User, error)
	ApplyBalanceDelta(ctx context.Context, userID int64, delta decimal.Decimal) (*domain.User, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, args repoargs.CreateTransaction) (*domain.Transaction, error)
	UpdateStatusByPaymentID(
		ctx context.Context,
		paymentID string,
		from, to domain.TransactionStatus,
	) (int64, error)
	UpdateStatusReturningOwners(
		ctx context.Context,
		paymentID string,
		from, to domain.TransactionStatus,
	) ([]int64, error)
	ListByUser(ctx context.Context, userID int64, limit uint) ([]domain.Transaction, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit uint) ([]domain.Transaction, error)
}

type CatalogRepository interface {
	GetActivePackages(ctx context.Context) ([]domain.CreditPackage, error)
	GetPackage(ctx context.Context, packageID string) (*domain.CreditPackage, error)
	GetGameCost(ctx context.Context, gameID, gameMode string) (*domain.GameCost, error)
}

// PaymentGateway внешний платежный провайдер.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, paymentID string) (*domain.PaymentIntent, error)
}
