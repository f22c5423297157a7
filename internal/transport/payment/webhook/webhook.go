// Package webhook проверяет подпись событий платежного провайдера и разбирает их.
//
// Заголовок подписи имеет вид "t=<unix>,v1=<hex>[,v1=<hex>...]", где v1 это
// HMAC-SHA256(secret, t + "." + body). Несколько v1 допускаются на время ротации секрета.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/transport/payment/client"
)

const (
	SignatureHeader  = "Payment-Signature"
	DefaultTolerance = 5 * time.Minute
	signatureScheme  = "v1"
)

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
	EventPaymentCanceled  EventType = "payment_intent.canceled"
)

var (
	ErrMissingHeader    = errors.New("missing signature header")
	ErrInvalidHeader    = errors.New("invalid signature header")
	ErrNoValidSignature = errors.New("no signatures matching the expected signature")
	ErrTimestampExpired = errors.New("timestamp outside the tolerance zone")
)

// Event событие провайдера. Data.Object содержит объект, к которому относится событие.
type Event struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	Created int64     `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// PaymentIntent разбирает объект события как платежное намерение.
func (e *Event) PaymentIntent() (*domain.PaymentIntent, error) {
	var intent client.IntentResponse
	if err := json.Unmarshal(e.Data.Object, &intent); err != nil {
		return nil, domain.NewValidationError("malformed payment intent object: %s", err.Error())
	}
	if intent.ID == "" {
		return nil, domain.NewValidationError("payment intent id is missing")
	}
	return intent.ToDomain(), nil
}

// ConstructEvent проверяет подпись payload и возвращает разобранное событие.
// Ошибки подписи оборачивают domain.ErrInvalidSignature, ошибки разбора тела это domain.KindValidation.
func ConstructEvent(payload []byte, header, secret string, now time.Time, tolerance time.Duration) (*Event, error) {
	if err := VerifySignature(payload, header, secret, now, tolerance); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.NewValidationError("malformed event: %s", err.Error())
	}
	if event.Type == "" {
		return nil, domain.NewValidationError("event type is missing")
	}
	return &event, nil
}

// VerifySignature проверяет заголовок подписи header для payload. Сравнение подписей выполняется
// за постоянное время.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	if header == "" {
		return domain.ErrInvalidSignature.Wrap(ErrMissingHeader)
	}

	timestamp, signatures, err := parseHeader(header)
	if err != nil {
		return domain.ErrInvalidSignature.Wrap(err)
	}

	if tolerance > 0 {
		signedAt := time.Unix(timestamp, 0)
		if now.Sub(signedAt) > tolerance || signedAt.Sub(now) > tolerance {
			return domain.ErrInvalidSignature.Wrap(ErrTimestampExpired)
		}
	}

	expected := computeSignature(payload, secret, timestamp)
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return domain.ErrInvalidSignature.Wrap(ErrNoValidSignature)
}

// Sign формирует значение заголовка подписи для payload. Используется в тестах и утилитах отправки событий.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,%s=%s", ts, signatureScheme, hex.EncodeToString(computeSignature(payload, secret, ts)))
}

func computeSignature(payload []byte, secret string, timestamp int64) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseHeader(header string) (int64, [][]byte, error) {
	var (
		timestamp  int64
		hasTime    bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return 0, nil, ErrInvalidHeader
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidHeader
			}
			timestamp, hasTime = ts, true
		case signatureScheme:
			sig, err := hex.DecodeString(value)
			if err != nil {
				// неизвестные или битые подписи пропускаем, достаточно одной верной
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if !hasTime {
		return 0, nil, ErrInvalidHeader
	}
	if len(signatures) == 0 {
		return 0, nil, ErrNoValidSignature
	}
	return timestamp, signatures, nil
}
