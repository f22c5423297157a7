package repoargs

import (
	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateTransaction struct {
	UserID          int64
	Amount          decimal.Decimal
	Type            domain.TransactionType
	Status          domain.TransactionStatus
	PaymentID       string
	PaymentProvider string
	Description     string
	Metadata        domain.Metadata
}

