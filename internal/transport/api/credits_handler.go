package api

import (
	"context"
	"net/http"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/gin-gonic/gin"
)

type CreditsHandler struct {
	catalog   CatalogServicer
	purchaser Purchaser
}

func NewCreditsHandler(catalog CatalogServicer, purchaser Purchaser) *CreditsHandler {
	return &CreditsHandler{
		catalog:   catalog,
		purchaser: purchaser,
	}
}

type PackageResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Credits      int64   `json:"credits"`
	BonusCredits int64   `json:"bonusCredits"`
	TotalCredits int64   `json:"totalCredits"`
	Order        int     `json:"order"`
}

func newPackageResponse(p domain.CreditPackage) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price.InexactFloat64(),
		Credits:      p.Credits,
		BonusCredits: p.BonusCredits,
		TotalCredits: p.TotalCredits(),
		Order:        p.Order,
	}
}

// Packages отдает активные пакеты кредитов. Авторизация не нужна.
func (h *CreditsHandler) Packages(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	packages, err := h.catalog.ActivePackages(reqCtx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	response := make([]PackageResponse, len(packages))
	for i, p := range packages {
		response[i] = newPackageResponse(p)
	}
	c.JSON(http.StatusOK, response)
}

type PurchaseParams struct {
	PackageID string `json:"packageId" binding:"required,slug"`
}

type PurchaseResponse struct {
	ClientSecret string          `json:"clientSecret"`
	PaymentID    string          `json:"paymentId"`
	TotalCredits int64           `json:"totalCredits"`
	Package      PackageResponse `json:"package"`
}

// Purchase создает платежное намерение на покупку пакета. Кредиты не зачисляются до подтверждения
// оплаты провайдером.
func (h *CreditsHandler) Purchase(c *gin.Context) {
	currentUserID := getUserIDFromContext(c)

	var params PurchaseParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithValidation(c, "invalid request: packageId is required")
		return
	}

	// вызов провайдера может занять больше обычного таймаута.
	reqCtx, cancel := context.WithTimeout(c, PurchaseServiceTimeout)
	defer cancel()

	result, err := h.purchaser.InitiatePurchase(reqCtx, currentUserID, params.PackageID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, &PurchaseResponse{
		ClientSecret: result.ClientSecret,
		PaymentID:    result.PaymentID,
		TotalCredits: result.TotalCredits,
		Package:      newPackageResponse(result.Package),
	})
}
