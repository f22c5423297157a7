package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/service"
)

// CatalogServicer интерфейс исключительно для моков.
type CatalogServicer interface {
	ActivePackages(ctx context.Context) ([]domain.CreditPackage, error)
}

type Spender interface {
	Spend(ctx context.Context, userID int64, gameID, gameMode string) (*service.SpendResult, error)
}

type Purchaser interface {
	InitiatePurchase(ctx context.Context, userID int64, packageID string) (*service.PurchaseResult, error)
}

type Settler interface {
	ReconcileSuccess(ctx context.Context, paymentID string, amountMinor int64, userID int64) (*service.ReconcileResult, error)
	ReconcileFailure(ctx context.Context, paymentID string) (*service.ReconcileResult, error)
}

type AccountServicer interface {
	GetAccount(ctx context.Context, userID int64) (*domain.User, error)
	ListTransactions(ctx context.Context, userID int64, limit uint) ([]domain.Transaction, error)
}
