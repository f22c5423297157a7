package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SpendService struct {
	uow         uow.UOW
	catalogRepo CatalogRepository
}

func NewSpendService(u uow.UOW) (*SpendService, error) {
	catalogRepo, err := uow.GetRepositoryAs[CatalogRepository](u, uow.RepositoryName(repoargs.CatalogRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &SpendService{uow: u, catalogRepo: catalogRepo}, nil
}

type SpendResult struct {
	TransactionID    uuid.UUID
	RemainingCredits int64
	CreditsSpent     int64
}

// Spend списывает стоимость игры gameID в режиме gameMode с кредитов пользователя userID.
// Пустой gameMode означает domain.DefaultGameMode.
//
// Списание и запись CREDIT_SPEND выполняются в одной транзакции. Проверка остатка делается
// условным UPDATE, поэтому конкурентные вызовы для одного пользователя не уводят кредиты в минус.
//
// Ошибки: domain.ErrGameCostNotFound, domain.ErrInsufficientCredits, domain.ErrUserNotFound,
// domain.ErrTransientStore, domain.ErrUnexpected.
func (s *SpendService) Spend(ctx context.Context, userID int64, gameID, gameMode string) (*SpendResult, error) {
	if gameID == "" {
		return nil, domain.NewValidationError("gameId is required")
	}
	if gameMode == "" {
		gameMode = domain.DefaultGameMode
	}

	cost, costErr := activeGameCost(ctx, s.catalogRepo, gameID, gameMode)
	if costErr != nil {
		return nil, costErr
	}

	var result SpendResult
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, err := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		transRepo, err := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}

		user, err := userRepo.ApplyCreditDelta(c, userID, -cost.Credits, 0)
		if err != nil {
			return translateStoreErr(err, domain.ErrUserNotFound)
		}

		trans, err := transRepo.Create(c, repoargs.CreateTransaction{
			UserID:      userID,
			Amount:      decimal.NewFromInt(cost.Credits),
			Type:        domain.TransactionTypeCreditSpend,
			Status:      domain.TransactionStatusCompleted,
			Description: fmt.Sprintf("Played %s (%s)", cost.GameName, cost.GameMode),
			Metadata: domain.Metadata{
				"gameId":   cost.GameID,
				"gameMode": cost.GameMode,
				"gameName": cost.GameName,
			},
		})
		if err != nil {
			return translateStoreErr(err, nil)
		}

		result = SpendResult{
			TransactionID:    trans.ID,
			RemainingCredits: user.Credits,
			CreditsSpent:     cost.Credits,
		}
		return nil
	})
	if txErr != nil {
		return nil, translateStoreErr(txErr, nil)
	}
	return &result, nil
}
