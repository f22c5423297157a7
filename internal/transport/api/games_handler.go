package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type GamesHandler struct {
	spender Spender
}

func NewGamesHandler(spender Spender) *GamesHandler {
	return &GamesHandler{spender: spender}
}

type SpendParams struct {
	GameID   string `json:"gameId" binding:"required,slug"`
	GameMode string `json:"gameMode" binding:"omitempty,slug"`
}

type SpendResponse struct {
	TransactionID    string `json:"transactionId"`
	RemainingCredits int64  `json:"remainingCredits"`
	CreditsSpent     int64  `json:"creditsSpent"`
}

func (g *GamesHandler) Spend(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params SpendParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithValidation(c, "invalid request: gameId is required")
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := g.spender.Spend(reqCtx, currentUserID, params.GameID, params.GameMode)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &SpendResponse{
		TransactionID:    result.TransactionID.String(),
		RemainingCredits: result.RemainingCredits,
		CreditsSpent:     result.CreditsSpent,
	})
}
