package api

import (
	"errors"
	"net/http"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
)

// statusForError сопоставляет вид ошибки с HTTP статусом.
func statusForError(err *domain.Error) int {
	switch err.Kind {
	case domain.KindValidation, domain.KindInsufficientCredits:
		return http.StatusBadRequest
	case domain.KindUnauthenticated, domain.KindInvalidSignature:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		// неизвестный пакет это ошибка бизнес-правила запроса покупки
		if err.Entity == domain.EntityPackage {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case domain.KindTransientStore, domain.KindPaymentUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindUnexpected:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

// abortWithError прерывает запрос с ошибкой. Клиент видит только сообщение вида ошибки,
// исходная причина уходит в лог приватной ошибкой.
func abortWithError(c *gin.Context, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		domainErr = domain.ErrUnexpected.Wrap(err)
	}

	status := statusForError(domainErr)
	meta := middlewares.ErrorMeta{Code: domainErr.Kind.String()}
	c.AbortWithStatus(status)

	cause := domainErr.Err
	if cause == nil {
		cause = domainErr
	}

	if domainErr.Kind == domain.KindUnexpected {
		_ = c.Error(cause).SetType(gin.ErrorTypePrivate).SetMeta(meta)
		return
	}
	_ = c.Error(errors.New(domainErr.Msg)).SetType(gin.ErrorTypePublic).SetMeta(meta)
	if domainErr.Err != nil {
		_ = c.Error(cause).SetType(gin.ErrorTypePrivate)
	}
}

// abortWithValidation прерывает запрос с ошибкой валидации входных данных.
func abortWithValidation(c *gin.Context, format string, args ...any) {
	abortWithError(c, domain.NewValidationError(format, args...))
}
