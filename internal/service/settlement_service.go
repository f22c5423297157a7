package service

import (
	"context"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/repository/repoargs"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type SettlementService struct {
	uow       uow.UOW
	transRepo TransactionRepository
	logger    logrus.FieldLogger
}

func NewSettlementService(u uow.UOW, l logrus.FieldLogger) (*SettlementService, error) {
	transRepo, err := uow.GetRepositoryAs[TransactionRepository](u, uow.RepositoryName(repoargs.TransactionRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &SettlementService{
		uow:       u,
		transRepo: transRepo,
		logger:    l.WithField("module", "settlement"),
	}, nil
}

// StalePending возвращает незавершенные покупки старше olderThan. Используется для сверки
// с провайдером, если событие о платеже не пришло.
func (s *SettlementService) StalePending(
	ctx context.Context,
	olderThan time.Time,
	limit uint,
) ([]domain.Transaction, error) {
	list, err := s.transRepo.ListStalePending(ctx, olderThan, limit)
	if err != nil {
		return nil, translateStoreErr(err, nil)
	}
	return list, nil
}

type ReconcileResult struct {
	// Matched сколько PENDING транзакций перешло в конечный статус. 0 означает повтор или неизвестную ссылку.
	Matched int64
	// UserID владелец завершенной покупки, чей баланс пополнен. 0, если ничего не сопоставилось.
	UserID int64
}

// ReconcileSuccess завершает покупку с внешней ссылкой paymentID и зачисляет amountMinor/100
// на баланс владельца записи журнала. Перевод статуса PENDING -> COMPLETED и зачисление выполняются
// в одной транзакции; зачисление происходит только если статус действительно поменялся, поэтому
// повторная доставка события ничего не меняет. userID это пользователь, которого называет
// источник события: при расхождении с владельцем записи зачисляется владелец, а расхождение пишется в лог.
func (s *SettlementService) ReconcileSuccess(
	ctx context.Context,
	paymentID string,
	amountMinor int64,
	userID int64,
) (*ReconcileResult, error) {
	if paymentID == "" {
		return nil, domain.NewValidationError("payment reference is required")
	}
	if amountMinor < 0 {
		return nil, domain.NewValidationError("amount must not be negative")
	}

	l := s.logger.WithFields(logrus.Fields{"paymentID": paymentID, "userID": userID})

	var result ReconcileResult
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		transRepo, err := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		userRepo, err := uow.GetAs[UserRepository](tx, uow.RepositoryName(repoargs.UserRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}

		owners, err := transRepo.UpdateStatusReturningOwners(c, paymentID,
			domain.TransactionStatusPending, domain.TransactionStatusCompleted)
		if err != nil {
			return translateStoreErr(err, nil)
		}
		result.Matched = int64(len(owners))
		if len(owners) == 0 {
			return nil
		}

		owner := owners[0]
		for _, o := range owners[1:] {
			if o != owner {
				// откатываем: одна оплата не может пополнить разных пользователей.
				return domain.ErrUnexpected.Wrap(
					errors.Errorf("payment %s is referenced by rows of users %d and %d", paymentID, owner, o))
			}
		}
		result.UserID = owner

		if _, err = userRepo.ApplyBalanceDelta(c, owner, FromMinorUnits(amountMinor)); err != nil {
			return translateStoreErr(err, domain.ErrUserNotFound)
		}
		return nil
	})
	if txErr != nil {
		return nil, translateStoreErr(txErr, nil)
	}

	if result.Matched == 0 {
		l.Info("no pending transaction for payment, skipping")
		return &result, nil
	}
	if userID != 0 && userID != result.UserID {
		l.WithField("ownerID", result.UserID).Warn("event user differs from payment owner, owner credited")
	}
	l.WithFields(logrus.Fields{"amountMinor": amountMinor, "ownerID": result.UserID}).Info("payment settled")
	return &result, nil
}

// ReconcileFailure помечает покупку с внешней ссылкой paymentID как FAILED. Баланс не меняется.
func (s *SettlementService) ReconcileFailure(ctx context.Context, paymentID string) (*ReconcileResult, error) {
	if paymentID == "" {
		return nil, domain.NewValidationError("payment reference is required")
	}

	l := s.logger.WithField("paymentID", paymentID)

	var result ReconcileResult
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		transRepo, err := uow.GetAs[TransactionRepository](tx, uow.RepositoryName(repoargs.TransactionRepoName))
		if err != nil {
			return err //nolint:wrapcheck
		}
		matched, err := transRepo.UpdateStatusByPaymentID(c, paymentID,
			domain.TransactionStatusPending, domain.TransactionStatusFailed)
		if err != nil {
			return translateStoreErr(err, nil)
		}
		result.Matched = matched
		return nil
	})
	if txErr != nil {
		return nil, translateStoreErr(txErr, nil)
	}

	if result.Matched == 0 {
		l.Info("no pending transaction for failed payment, skipping")
		return &result, nil
	}
	l.Info("payment marked as failed")
	return &result, nil
}
