package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var minorUnitsPerMajor = decimal.NewFromInt(100) //nolint:gochecknoglobals

type PurchaseArgs struct {
	// Currency валюта платежного намерения, например "usd".
	Currency string
	// Provider имя провайдера, сохраняемое в транзакции рядом с внешней ссылкой.
	Provider string
}

type PurchaseService struct {
	catalogRepo CatalogRepository
	transRepo   TransactionRepository
	gateway     PaymentGateway
	args        PurchaseArgs
	logger      logrus.FieldLogger
}

func NewPurchaseService(
	u uow.UOW,
	gateway PaymentGateway,
	args PurchaseArgs,
	l logrus.FieldLogger,
) (*PurchaseService, error) {
	catalogRepo, err := uow.GetRepositoryAs[CatalogRepository](u, uow.RepositoryName(repoargs.CatalogRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	transRepo, err := uow.GetRepositoryAs[TransactionRepository](u, uow.RepositoryName(repoargs.TransactionRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &PurchaseService{
		catalogRepo: catalogRepo,
		transRepo:   transRepo,
		gateway:     gateway,
		args:        args,
		logger:      l.WithField("module", "purchase"),
	}, nil
}

type PurchaseResult struct {
	PaymentID    string
	ClientSecret string
	TotalCredits int64
	Package      domain.CreditPackage
}

// ToMinorUnits переводит сумму в минимальные единицы валюты (центы), округляя до целого.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// FromMinorUnits переводит минимальные единицы валюты обратно в денежную сумму.
func FromMinorUnits(amountMinor int64) decimal.Decimal {
	return decimal.New(amountMinor, -2)
}

// InitiatePurchase создает платежное намерение на покупку пакета packageID и PENDING транзакцию,
// привязанную к его внешнему id. Баланс здесь не меняется: это делает SettlementService по событию
// провайдера.
//
// Ошибки: domain.ErrPackageNotFound, domain.ErrPaymentUnavailable, domain.ErrTransientStore,
// domain.ErrUnexpected.
func (p *PurchaseService) InitiatePurchase(
	ctx context.Context,
	userID int64,
	packageID string,
) (*PurchaseResult, error) {
	if packageID == "" {
		return nil, domain.NewValidationError("packageId is required")
	}

	pkg, pkgErr := activePackage(ctx, p.catalogRepo, packageID)
	if pkgErr != nil {
		return nil, pkgErr
	}

	totalCredits := pkg.TotalCredits()
	intent, intentErr := p.gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		AmountMinor:    ToMinorUnits(pkg.Price),
		Currency:       p.args.Currency,
		IdempotencyKey: uuid.NewString(),
		Metadata: map[string]string{
			"userId":    strconv.FormatInt(userID, 10),
			"type":      domain.PurchaseMetadataType,
			"packageId": pkg.ID,
			"credits":   strconv.FormatInt(totalCredits, 10),
		},
	})
	if intentErr != nil {
		return nil, translatePaymentErr(intentErr)
	}

	_, createErr := p.transRepo.Create(ctx, repoargs.CreateTransaction{
		UserID:          userID,
		Amount:          pkg.Price,
		Type:            domain.TransactionTypeCreditPurchase,
		Status:          domain.TransactionStatusPending,
		PaymentID:       intent.ID,
		PaymentProvider: p.args.Provider,
		Description:     fmt.Sprintf("Purchase of %s", pkg.Name),
		Metadata: domain.Metadata{
			"packageId":   pkg.ID,
			"credits":     totalCredits,
			"packageName": pkg.Name,
		},
	})
	if createErr != nil {
		// намерение у провайдера уже есть, а записи о нем нет: без id его не найти.
		p.logger.WithError(createErr).
			WithFields(logrus.Fields{"paymentID": intent.ID, "userID": userID, "packageID": pkg.ID}).
			Error("orphaned payment intent")
		return nil, translateStoreErr(createErr, nil)
	}

	return &PurchaseResult{
		PaymentID:    intent.ID,
		ClientSecret: intent.ClientSecret,
		TotalCredits: totalCredits,
		Package:      *pkg,
	}, nil
}
