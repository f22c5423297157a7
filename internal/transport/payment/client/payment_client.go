// Package client HTTP клиент API платежных намерений провайдера.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	RoutePaymentIntents = "/v1/payment_intents"
	RoutePaymentIntent  = "/v1/payment_intents/%s"
)

// Константы минимального и максимально значения в заголовке Retry-After.
const (
	minRetryAfter = 1
	maxRetryAfter = 120
)

const defaultTimeout = 10 * time.Second

type createIntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IntentResponse объект платежного намерения в ответах провайдера и в событиях вебхука.
type IntentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// ToDomain переводит ответ провайдера в domain.PaymentIntent.
func (r *IntentResponse) ToDomain() *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           r.ID,
		ClientSecret: r.ClientSecret,
		AmountMinor:  r.Amount,
		Currency:     r.Currency,
		Status:       domain.PaymentIntentStatus(r.Status),
		Metadata:     r.Metadata,
	}
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HTTPClient реализация шлюза к платежному провайдеру поверх HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// CreatePaymentIntent создает платежное намерение. IdempotencyKey передается в заголовке Idempotency-Key,
// поэтому повтор запроса с тем же ключом не создаст второе намерение.
func (c *HTTPClient) CreatePaymentIntent(
	ctx context.Context,
	req domain.PaymentIntentRequest,
) (*domain.PaymentIntent, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Metadata: req.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %s", err.Error())
	}

	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RoutePaymentIntents,
		bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	var intent IntentResponse
	if doErr := c.do(httpReq, &intent); doErr != nil {
		return nil, doErr
	}
	return intent.ToDomain(), nil
}

// GetPaymentIntent получает текущее состояние платежного намерения.
func (c *HTTPClient) GetPaymentIntent(ctx context.Context, paymentID string) (*domain.PaymentIntent, error) {
	route := c.baseURL + fmt.Sprintf(RoutePaymentIntent, url.PathEscape(paymentID))
	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, route, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}

	var intent IntentResponse
	if doErr := c.do(httpReq, &intent); doErr != nil {
		return nil, doErr
	}
	return intent.ToDomain(), nil
}

// do выполняет запрос и декодирует успешный ответ в out.
// При ответе со статусом вне 2xx возвращает StatusCodeError, при http.StatusTooManyRequests TooManyRequestError.
// Сетевые ошибки оборачивают domain.ErrPaymentUnavailable.
//
//nolint:nonamedreturns
func (c *HTTPClient) do(req *http.Request, out any) (err error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf("do request: %w: %s", domain.ErrPaymentUnavailable, doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return NewTooManyRequestError(parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("read response: %w: %s", domain.ErrPaymentUnavailable, readErr.Error())
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		return NewStatusCodeError(resp.StatusCode, errResp.Error.Message)
	}

	if jsonErr := json.Unmarshal(body, out); jsonErr != nil {
		return fmt.Errorf("parse response: %s", jsonErr.Error())
	}
	return nil
}

func parseRetryAfter(value string) time.Duration {
	minValue := decimal.NewFromInt(minRetryAfter)
	maxValue := decimal.NewFromInt(maxRetryAfter)

	retryAfter, parseErr := decimal.NewFromString(value)
	if parseErr != nil || retryAfter.LessThan(minValue) || retryAfter.GreaterThan(maxValue) {
		// в случае ошибки или неверных данных ставим 60 секунд
		retryAfter = decimal.NewFromInt(60) //nolint:mnd
	}
	return time.Duration(retryAfter.IntPart()) * time.Second
}
