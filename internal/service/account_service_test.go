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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUserRepo    *mocks.MockUserRepository
	mockTransRepo   *mocks.MockTransactionRepository
	mockCatalogRepo *mocks.MockCatalogRepository
	accountService  *AccountService
	catalogService  *CatalogService
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	mockUOW := uowmocks.NewMockUOW(s.mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(s.mockCtrl)
	s.mockTransRepo = mocks.NewMockTransactionRepository(s.mockCtrl)
	s.mockCatalogRepo = mocks.NewMockCatalogRepository(s.mockCtrl)

	mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.UserRepoName)).
		Return(s.mockUserRepo, nil).AnyTimes()
	mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.TransactionRepoName)).
		Return(s.mockTransRepo, nil).AnyTimes()
	mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.CatalogRepoName)).
		Return(s.mockCatalogRepo, nil).AnyTimes()

	var err error
	s.accountService, err = NewAccountService(mockUOW)
	s.Require().NoError(err)
	s.catalogService, err = NewCatalogService(mockUOW)
	s.Require().NoError(err)
}

func (s *AccountServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *AccountServiceTestSuite) TestGetAccount() {
	s.mockUserRepo.EXPECT().GetUser(gomock.Any(), int64(3)).
		Return(&domain.User{ID: 3, Credits: 12, Balance: decimal.NewFromInt(5)}, nil)

	user, err := s.accountService.GetAccount(context.Background(), 3)
	s.Require().NoError(err)
	s.Equal(int64(12), user.Credits)

	s.mockUserRepo.EXPECT().GetUser(gomock.Any(), int64(4)).Return(nil, domain.ErrRecordNotFound)
	_, err = s.accountService.GetAccount(context.Background(), 4)
	s.Require().ErrorIs(err, domain.ErrUserNotFound)
}

func (s *AccountServiceTestSuite) TestListTransactions() {
	s.mockTransRepo.EXPECT().ListByUser(gomock.Any(), int64(3), DefaultTransactionsLimit).
		Return([]domain.Transaction{{UserID: 3}}, nil)

	list, err := s.accountService.ListTransactions(context.Background(), 3, 0)
	s.Require().NoError(err)
	s.Len(list, 1)

	_, err = s.accountService.ListTransactions(context.Background(), 3, MaxTransactionsLimit+1)
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *AccountServiceTestSuite) TestActivePackages() {
	s.mockCatalogRepo.EXPECT().GetActivePackages(gomock.Any()).
		Return([]domain.CreditPackage{{ID: "a", Order: 1}, {ID: "b", Order: 2}}, nil)

	packages, err := s.catalogService.ActivePackages(context.Background())
	s.Require().NoError(err)
	s.Len(packages, 2)
}

func (s *AccountServiceTestSuite) TestGameCostDefaultsMode() {
	s.mockCatalogRepo.EXPECT().GetGameCost(gomock.Any(), "chess", domain.DefaultGameMode).
		Return(&domain.GameCost{GameID: "chess", GameMode: domain.DefaultGameMode, IsActive: true}, nil)

	cost, err := s.catalogService.GameCost(context.Background(), "chess", "")
	s.Require().NoError(err)
	s.Equal("chess", cost.GameID)
}
