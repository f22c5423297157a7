package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/transport/payment/webhook"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes int64 = 64 << 10

type WebhookHandler struct {
	settler Settler
	secret  string
	l       *logrus.Entry
}

func NewWebhookHandler(settler Settler, secret string, l logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{
		settler: settler,
		secret:  secret,
		l:       l.WithFields(logrus.Fields{"component": "api", "module": "webhook"}),
	}
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

// Payments принимает события платежного провайдера. Событие с неверной подписью не меняет
// журнал, но получает такой же ответ, как принятое, чтобы отправитель не мог подбирать подпись.
func (w *WebhookHandler) Payments(c *gin.Context) {
	payload, readErr := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if readErr != nil {
		abortWithValidation(c, "unreadable event body")
		return
	}

	event, eventErr := webhook.ConstructEvent(
		payload,
		c.GetHeader(webhook.SignatureHeader),
		w.secret,
		time.Now(),
		webhook.DefaultTolerance,
	)
	if eventErr != nil {
		if errors.Is(eventErr, domain.ErrInvalidSignature) {
			w.l.WithError(eventErr).WithField("ip", c.ClientIP()).Warn("rejected event with invalid signature")
			c.JSON(http.StatusOK, &WebhookResponse{Received: true})
			return
		}
		abortWithError(c, eventErr)
		return
	}

	l := w.l.WithFields(logrus.Fields{"eventID": event.ID, "eventType": event.Type})

	switch event.Type {
	case webhook.EventPaymentSucceeded, webhook.EventPaymentFailed, webhook.EventPaymentCanceled:
	default:
		l.Debug("ignoring event type")
		c.JSON(http.StatusOK, &WebhookResponse{Received: true})
		return
	}

	intent, intentErr := event.PaymentIntent()
	if intentErr != nil {
		abortWithError(c, intentErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	var err error
	if event.Type == webhook.EventPaymentSucceeded {
		// зачисляется владелец записи журнала, userId из метаданных нужен только для сверки.
		var userID int64
		if raw, ok := intent.Metadata["userId"]; ok {
			parsed, parseErr := strconv.ParseInt(raw, 10, 64)
			if parseErr != nil || parsed <= 0 {
				abortWithValidation(c, "event metadata has malformed userId")
				return
			}
			userID = parsed
		}
		_, err = w.settler.ReconcileSuccess(reqCtx, intent.ID, intent.AmountMinor, userID)
	} else {
		_, err = w.settler.ReconcileFailure(reqCtx, intent.ID)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	l.WithField("paymentID", intent.ID).Info("event processed")
	c.JSON(http.StatusOK, &WebhookResponse{Received: true})
}
