package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	svs AccountServicer
}

func NewAccountHandler(svs AccountServicer) *AccountHandler {
	return &AccountHandler{svs: svs}
}

type CreditsResponse struct {
	Credits int64   `json:"credits"`
	Balance float64 `json:"balance"`
}

func (a *AccountHandler) Credits(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	user, err := a.svs.GetAccount(reqCtx, currentUserID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &CreditsResponse{
		Credits: user.Credits,
		Balance: user.Balance.InexactFloat64(),
	})
}

type TransactionResponseItem struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Amount      float64        `json:"amount"`
	PaymentID   *string        `json:"paymentId,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"createdAt"`
}

func (a *AccountHandler) Transactions(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var limit uint
	if raw := c.Query("limit"); raw != "" {
		parsed, parseErr := strconv.ParseUint(raw, 10, 32)
		if parseErr != nil {
			abortWithValidation(c, "limit must be a positive integer")
			return
		}
		limit = uint(parsed)
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	transactions, err := a.svs.ListTransactions(reqCtx, currentUserID, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	response := make([]TransactionResponseItem, len(transactions))
	for i, t := range transactions {
		response[i] = TransactionResponseItem{
			ID:          t.ID.String(),
			Type:        string(t.Type),
			Status:      string(t.Status),
			Amount:      t.Amount.InexactFloat64(),
			PaymentID:   t.PaymentID,
			Description: t.Description,
			Metadata:    t.Metadata,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, response)
}
