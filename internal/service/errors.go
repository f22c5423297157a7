package service

import (
	stderrors "errors"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/pkg/errors"
)

// translateStoreErr переводит ошибку слоя хранения в ошибку бизнес-операции.
// notFound используется для domain.ErrRecordNotFound; если он nil, отсутствие записи считается неожиданным.
// Ошибки, уже принадлежащие таксономии domain.Error, возвращаются без изменений.
func translateStoreErr(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if stderrors.As(err, &domainErr) {
		return err
	}

	switch {
	case stderrors.Is(err, domain.ErrRecordNotFound) && notFound != nil:
		return notFound.Wrap(err)
	case stderrors.Is(err, domain.ErrNotEnoughCredits):
		return domain.ErrInsufficientCredits.Wrap(err)
	case stderrors.Is(err, domain.ErrTransient), stderrors.Is(err, uow.ErrBeginTx):
		return domain.ErrTransientStore.Wrap(err)
	}
	// исход коммита с ошибкой неизвестен, повтор мог бы задвоить операцию.
	return domain.ErrUnexpected.Wrap(errors.WithStack(err))
}

// translatePaymentErr переводит ошибку платежного провайдера.
func translatePaymentErr(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, domain.ErrPaymentUnavailable) {
		return domain.ErrPaymentUnavailable.Wrap(err)
	}
	return domain.ErrUnexpected.Wrap(errors.WithStack(err))
}
