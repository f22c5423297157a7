package domain

import (
	"errors"
	"fmt"
)

// Ошибки слоя хранения. Наружу из сервисного слоя не выходят.
var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrTransient        = errors.New("transient store failure")
	ErrUnknown          = errors.New("unknown error")
	ErrNotEnoughCredits = errors.New("not enough credits")
	ErrNotEnoughBalance = errors.New("not enough balance")
)

// ErrorKind закрытый набор видов ошибок, которые видит вызывающая сторона.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindInsufficientCredits
	KindInvalidSignature
	KindTransientStore
	KindPaymentUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindInsufficientCredits:
		return "insufficient_credits"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindTransientStore:
		return "transient_store_failure"
	case KindPaymentUnavailable:
		return "payment_unavailable"
	case KindUnexpected:
		return "unexpected_error"
	}
	return "unexpected_error"
}

const (
	EntityUser     = "user"
	EntityPackage  = "package"
	EntityGameCost = "game_cost"
)

// Error ошибка бизнес-операции. Kind определяет реакцию вызывающей стороны, Entity уточняет KindNotFound,
// Err хранит исходную причину для логов.
type Error struct {
	Kind   ErrorKind
	Entity string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по виду и сущности, поэтому errors.Is(err, ErrUserNotFound) работает и для обернутых причин.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Entity == t.Entity
}

// Wrap возвращает копию ошибки с прикрепленной причиной.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Entity: e.Entity, Msg: e.Msg, Err: cause}
}

var (
	ErrUnauthenticated     = &Error{Kind: KindUnauthenticated, Msg: "unauthenticated"}
	ErrUserNotFound        = &Error{Kind: KindNotFound, Entity: EntityUser, Msg: "user not found"}
	ErrPackageNotFound     = &Error{Kind: KindNotFound, Entity: EntityPackage, Msg: "credit package not found"}
	ErrGameCostNotFound    = &Error{Kind: KindNotFound, Entity: EntityGameCost, Msg: "game cost not found"}
	ErrInsufficientCredits = &Error{Kind: KindInsufficientCredits, Msg: "insufficient credits"}
	ErrInvalidSignature    = &Error{Kind: KindInvalidSignature, Msg: "invalid external signature"}
	ErrTransientStore      = &Error{Kind: KindTransientStore, Msg: "store temporarily unavailable"}
	ErrPaymentUnavailable  = &Error{Kind: KindPaymentUnavailable, Msg: "payment processor unavailable"}
	ErrUnexpected          = &Error{Kind: KindUnexpected, Msg: "unexpected error"}
)

// NewValidationError ошибка невалидного входа. Сообщение показывается клиенту.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// KindOf возвращает вид ошибки. Ошибки вне таксономии считаются KindUnexpected.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}
