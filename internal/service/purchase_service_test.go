package service

import (
	"context"
	"testing"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/internal/service/mocks"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-credits/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type PurchaseServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTransRepo   *mocks.MockTransactionRepository
	mockCatalogRepo *mocks.MockCatalogRepository
	mockGateway     *mocks.MockPaymentGateway
	logHook         *test.Hook
	purchaseService *PurchaseService
	pkg             *domain.CreditPackage
}

func TestPurchaseServiceSuite(t *testing.T) {
	suite.Run(t, new(PurchaseServiceTestSuite))
}

func (s *PurchaseServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTransRepo = mocks.NewMockTransactionRepository(s.mockCtrl)
	s.mockCatalogRepo = mocks.NewMockCatalogRepository(s.mockCtrl)
	s.mockGateway = mocks.NewMockPaymentGateway(s.mockCtrl)

	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.CatalogRepoName)).
		Return(s.mockCatalogRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTransRepo, nil).AnyTimes()

	var l *logrus.Logger
	l, s.logHook = test.NewNullLogger()

	purchaseService, err := NewPurchaseService(s.mockUOW, s.mockGateway, PurchaseArgs{
		Currency: "usd",
		Provider: "stripe",
	}, l)
	s.Require().NoError(err)
	s.purchaseService = purchaseService

	s.pkg = &domain.CreditPackage{
		ID:           "p1",
		Name:         "Starter",
		Price:        decimal.RequireFromString("4.99"),
		Credits:      100,
		BonusCredits: 20,
		IsActive:     true,
	}
}

func (s *PurchaseServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchase() {
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "p1").Return(s.pkg, nil)
	s.mockGateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntent, error) {
			s.Equal(int64(499), req.AmountMinor)
			s.Equal("usd", req.Currency)
			s.NotEmpty(req.IdempotencyKey)
			s.Equal(map[string]string{
				"userId":    "7",
				"type":      "credit_purchase",
				"packageId": "p1",
				"credits":   "120",
			}, req.Metadata)
			return &domain.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
		})
	s.mockTransRepo.EXPECT().Create(gomock.Any(), repoargs.CreateTransaction{
		UserID:          7,
		Amount:          s.pkg.Price,
		Type:            domain.TransactionTypeCreditPurchase,
		Status:          domain.TransactionStatusPending,
		PaymentID:       "pi_1",
		PaymentProvider: "stripe",
		Description:     "Purchase of Starter",
		Metadata:        domain.Metadata{"packageId": "p1", "credits": int64(120), "packageName": "Starter"},
	}).Return(&domain.Transaction{}, nil)

	res, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "p1")
	s.Require().NoError(err)
	s.Equal("pi_1", res.PaymentID)
	s.Equal("pi_1_secret", res.ClientSecret)
	s.Equal(int64(120), res.TotalCredits)
	s.Equal("p1", res.Package.ID)
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchaseUnknownPackage() {
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "nope").Return(nil, domain.ErrRecordNotFound)

	_, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "nope")
	s.Require().ErrorIs(err, domain.ErrPackageNotFound)
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchaseInactivePackage() {
	s.pkg.IsActive = false
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "p1").Return(s.pkg, nil)

	_, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "p1")
	s.Require().ErrorIs(err, domain.ErrPackageNotFound)
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchaseProcessorUnavailable() {
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "p1").Return(s.pkg, nil)
	s.mockGateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(nil, errors.Wrap(domain.ErrPaymentUnavailable, "status 502"))

	_, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "p1")
	s.Require().ErrorIs(err, domain.ErrPaymentUnavailable)
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchaseProcessorRejected() {
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "p1").Return(s.pkg, nil)
	s.mockGateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("status 400"))

	_, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "p1")
	s.Require().Error(err)
	s.Equal(domain.KindUnexpected, domain.KindOf(err))
}

func (s *PurchaseServiceTestSuite) TestInitiatePurchaseOrphanedIntentLogged() {
	s.mockCatalogRepo.EXPECT().GetPackage(gomock.Any(), "p1").Return(s.pkg, nil)
	s.mockGateway.EXPECT().CreatePaymentIntent(gomock.Any(), gomock.Any()).
		Return(&domain.PaymentIntent{ID: "pi_orphan"}, nil)
	s.mockTransRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(nil, errors.Wrap(domain.ErrTransient, "repo"))

	_, err := s.purchaseService.InitiatePurchase(context.Background(), 7, "p1")
	s.Require().ErrorIs(err, domain.ErrTransientStore)

	entry := s.logHook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(logrus.ErrorLevel, entry.Level)
	s.Equal("pi_orphan", entry.Data["paymentID"])
}

func TestToMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"4.99":   499,
		"19.995": 2000,
		"0.01":   1,
		"10":     1000,
		"1.005":  101,
	}
	for in, want := range cases {
		if got := ToMinorUnits(decimal.RequireFromString(in)); got != want {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", in, got, want)
		}
	}
	if got := FromMinorUnits(499); !got.Equal(decimal.RequireFromString("4.99")) {
		t.Errorf("FromMinorUnits(499) = %s", got)
	}
}
