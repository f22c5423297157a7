package payment

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/service"
)

type Client interface {
	GetPaymentIntent(ctx context.Context, paymentID string) (*domain.PaymentIntent, error)
}

type Servicer interface {
	StalePending(ctx context.Context, olderThan time.Time, limit uint) ([]domain.Transaction, error)
	ReconcileSuccess(
		ctx context.Context,
		paymentID string,
		amountMinor int64,
		userID int64,
	) (*service.ReconcileResult, error)
	ReconcileFailure(ctx context.Context, paymentID string) (*service.ReconcileResult, error)
}
