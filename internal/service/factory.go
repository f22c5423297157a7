package service

import (
	"fmt"

	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	CatalogService    *CatalogService
	SpendService      *SpendService
	PurchaseService   *PurchaseService
	SettlementService *SettlementService
	AccountService    *AccountService
}

func Factory(
	unitOfWork uow.UOW,
	gateway PaymentGateway,
	purchaseArgs PurchaseArgs,
	l logrus.FieldLogger,
) (*AppServices, error) {
	catalogService, err := NewCatalogService(unitOfWork)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	spendService, err := NewSpendService(unitOfWork)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	purchaseService, err := NewPurchaseService(unitOfWork, gateway, purchaseArgs, l)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	settlementService, err := NewSettlementService(unitOfWork, l)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	accountService, err := NewAccountService(unitOfWork)
	if err != nil {
		return nil, fmt.Errorf("service factory: %s", err.Error())
	}

	return &AppServices{
		CatalogService:    catalogService,
		SpendService:      spendService,
		PurchaseService:   purchaseService,
		SettlementService: settlementService,
		AccountService:    accountService,
	}, nil
}
