package domain

type TransactionType string

const (
	TransactionTypeCreditPurchase TransactionType = "CREDIT_PURCHASE"
	TransactionTypeCreditSpend    TransactionType = "CREDIT_SPEND"
	TransactionTypeCreditGrant    TransactionType = "CREDIT_GRANT"
	TransactionTypeDeposit        TransactionType = "DEPOSIT"
	TransactionTypeRefund         TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// IsTerminal сообщает, что статус больше не может измениться.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// DefaultGameMode используется, если клиент не передал режим игры.
const DefaultGameMode = "standard"

// PurchaseMetadataType значение поля type в метаданных платежного намерения.
const PurchaseMetadataType = "credit_purchase"

// Metadata произвольный набор ключей, прикрепляемый к транзакции. Ядро его не интерпретирует.
type Metadata map[string]any

type PaymentIntentStatus string

const (
	PaymentIntentRequiresPaymentMethod PaymentIntentStatus = "requires_payment_method"
	PaymentIntentProcessing            PaymentIntentStatus = "processing"
	PaymentIntentSucceeded             PaymentIntentStatus = "succeeded"
	PaymentIntentCanceled              PaymentIntentStatus = "canceled"
)

// PaymentIntentRequest параметры создания платежного намерения у платежного провайдера.
type PaymentIntentRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentIntent ответ платежного провайдера.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	AmountMinor  int64
	Currency     string
	Status       PaymentIntentStatus
	Metadata     map[string]string
}
