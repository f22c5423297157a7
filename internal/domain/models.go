package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Credits   int64
	Balance   decimal.Decimal
}

// Transaction запись журнала. После создания может меняться только статус, и только из PENDING.
type Transaction struct {
	ID              uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	UserID          int64
	Amount          decimal.Decimal
	Type            TransactionType
	Status          TransactionStatus
	PaymentID       *string
	PaymentProvider *string
	Description     string
	Metadata        Metadata
}

type CreditPackage struct {
	ID           string
	Name         string
	Price        decimal.Decimal
	Credits      int64
	BonusCredits int64
	IsActive     bool
	Order        int
}

// TotalCredits сколько кредитов получит пользователь за пакет.
func (p CreditPackage) TotalCredits() int64 {
	return p.Credits + p.BonusCredits
}

type GameCost struct {
	GameID   string
	GameMode string
	GameName string
	Credits  int64
	IsActive bool
}
