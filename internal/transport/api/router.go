package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fsdevblog/groph-credits/internal/transport/api/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout  = 3 * time.Second
	PurchaseServiceTimeout = 15 * time.Second
	corsMaxAge             = 12 * time.Hour
)

const (
	RouteGroup         = "/api"
	PackagesRoute      = "/credits/packages"
	PurchaseRoute      = "/credits/purchase"
	UserCreditsRoute   = "/user/credits"
	TransactionsRoute  = "/user/transactions"
	SpendRoute         = "/games/spend"
	PaymentWebhookPath = "/webhooks/payments"
	HealthRoute        = "/healthz"
)

type RouterArgs struct {
	Logger            logrus.FieldLogger
	CatalogService    CatalogServicer
	SpendService      Spender
	PurchaseService   Purchaser
	SettlementService Settler
	AccountService    AccountServicer
	JWTSecretKey      []byte
	WebhookSecret     string
	// AllowedOrigins пустой список отключает CORS.
	AllowedOrigins []string
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	l := args.Logger
	if l == nil {
		l = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if len(args.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     args.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", "Origin", "Accept"},
			AllowCredentials: true,
			MaxAge:           corsMaxAge,
		}))
	}
	r.Use(middlewares.Logger(l))
	r.Use(middlewares.Errors())

	creditsHandler := NewCreditsHandler(args.CatalogService, args.PurchaseService)
	gamesHandler := NewGamesHandler(args.SpendService)
	accountHandler := NewAccountHandler(args.AccountService)
	webhookHandler := NewWebhookHandler(args.SettlementService, args.WebhookSecret, l)

	r.GET(HealthRoute, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group(RouteGroup)

	api.GET(PackagesRoute, creditsHandler.Packages)
	// вебхук аутентифицируется подписью, а не токеном пользователя.
	api.POST(PaymentWebhookPath, webhookHandler.Payments)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.GET(UserCreditsRoute, accountHandler.Credits)
	api.GET(TransactionsRoute, accountHandler.Transactions)
	api.POST(SpendRoute, gamesHandler.Spend)
	api.POST(PurchaseRoute, creditsHandler.Purchase)
	return r, nil
}
