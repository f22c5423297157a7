package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
)

// StatusCodeError ответ провайдера с неуспешным статусом. Статусы 5xx считаются недоступностью провайдера.
type StatusCodeError struct {
	Code    int
	Message string
}

func NewStatusCodeError(code int, message string) *StatusCodeError {
	return &StatusCodeError{Code: code, Message: message}
}

func (e *StatusCodeError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Unexpected status code %d", e.Code)
	}
	return fmt.Sprintf("Unexpected status code %d: %s", e.Code, e.Message)
}

func (e *StatusCodeError) Unwrap() error {
	if e.Code >= http.StatusInternalServerError {
		return domain.ErrPaymentUnavailable
	}
	return nil
}

type TooManyRequestError struct {
	RetryAfter time.Duration
}

func NewTooManyRequestError(retryAfter time.Duration) *TooManyRequestError {
	return &TooManyRequestError{RetryAfter: retryAfter}
}

func (e *TooManyRequestError) Error() string {
	return fmt.Sprintf("Too many requests. Need retry after %.f seconds", e.RetryAfter.Seconds())
}

func (e *TooManyRequestError) Unwrap() error {
	return domain.ErrPaymentUnavailable
}
