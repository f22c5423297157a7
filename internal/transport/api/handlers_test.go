package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/service"
	"github.com/fsdevblog/groph-credits/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-credits/internal/transport/api/testutils"
	"github.com/fsdevblog/groph-credits/internal/transport/api/tokens"
	"github.com/fsdevblog/groph-credits/internal/transport/payment/webhook"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HandlersTestSuite struct {
	suite.Suite
	router        *gin.Engine
	logHook       *test.Hook
	catalog       *mocks.MockCatalogServicer
	spender       *mocks.MockSpender
	purchaser     *mocks.MockPurchaser
	settler       *mocks.MockSettler
	account       *mocks.MockAccountServicer
	jwtSecret     []byte
	webhookSecret string
	userID        int64
	token         string
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	mockCtrl := gomock.NewController(s.T())

	s.catalog = mocks.NewMockCatalogServicer(mockCtrl)
	s.spender = mocks.NewMockSpender(mockCtrl)
	s.purchaser = mocks.NewMockPurchaser(mockCtrl)
	s.settler = mocks.NewMockSettler(mockCtrl)
	s.account = mocks.NewMockAccountServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")
	s.webhookSecret = "whsec_test"

	var l *logrus.Logger
	l, s.logHook = test.NewNullLogger()

	router, err := New(RouterArgs{
		Logger:            l,
		CatalogService:    s.catalog,
		SpendService:      s.spender,
		PurchaseService:   s.purchaser,
		SettlementService: s.settler,
		AccountService:    s.account,
		JWTSecretKey:      s.jwtSecret,
		WebhookSecret:     s.webhookSecret,
		AllowedOrigins:    []string{"http://localhost:3000"},
	})
	s.Require().NoError(err)
	s.router = router

	s.userID = int64(gofakeit.IntRange(1, 100000))
	token, tokenErr := tokens.GenerateUserJWT(s.userID, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)
	s.token = token
}

func (s *HandlersTestSuite) request(method, url string, body any, opts ...func(*testutils.RequestOptions)) *http.Response {
	args := testutils.RequestArgs{Router: s.router, Method: method, URL: url}
	if body != nil {
		args.Body = testutils.JSONBody(s.T(), body)
	}
	return testutils.MakeRequest(args, opts...)
}

func (s *HandlersTestSuite) assertError(res *http.Response, status int, code string) {
	s.Equal(status, res.StatusCode)
	var body errorBody
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal(code, body.Code)
	s.NotEmpty(body.Error)
}

func (s *HandlersTestSuite) TestHealth() {
	res := s.request(http.MethodGet, HealthRoute, nil)
	var body map[string]string
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("ok", body["status"])
}

func (s *HandlersTestSuite) TestPackages() {
	s.catalog.EXPECT().ActivePackages(gomock.Any()).Return([]domain.CreditPackage{
		{ID: "starter", Name: "Starter", Price: decimal.RequireFromString("4.99"), Credits: 50, Order: 1, IsActive: true},
		{ID: "pro", Name: "Pro", Price: decimal.RequireFromString("9.99"), Credits: 100, BonusCredits: 20, Order: 2, IsActive: true},
	}, nil)

	// каталог доступен без токена.
	res := s.request(http.MethodGet, RouteGroup+PackagesRoute, nil)
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var body []PackageResponse
	testutils.DecodeBody(s.T(), res, &body)
	s.Require().Len(body, 2)
	s.Equal("starter", body[0].ID)
	s.InDelta(9.99, body[1].Price, 0.0001)
	s.Equal(int64(120), body[1].TotalCredits)
}

func (s *HandlersTestSuite) TestAuthRequired() {
	cases := []struct {
		name string
		opts []func(*testutils.RequestOptions)
	}{
		{name: "no token"},
		{name: "garbage token", opts: []func(*testutils.RequestOptions){testutils.WithBearer("not-a-jwt")}},
		{name: "foreign key", opts: []func(*testutils.RequestOptions){func() func(*testutils.RequestOptions) {
			token, err := tokens.GenerateUserJWT(s.userID, time.Hour, []byte("another key"))
			s.Require().NoError(err)
			return testutils.WithBearer(token)
		}()}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.request(http.MethodPost, RouteGroup+SpendRoute, map[string]string{"gameId": "chess"}, tc.opts...)
			s.assertError(res, http.StatusUnauthorized, domain.KindUnauthenticated.String())
		})
	}
}

func (s *HandlersTestSuite) TestCredits() {
	s.account.EXPECT().GetAccount(gomock.Any(), s.userID).Return(&domain.User{
		ID:      s.userID,
		Credits: 42,
		Balance: decimal.RequireFromString("12.50"),
	}, nil)

	res := s.request(http.MethodGet, RouteGroup+UserCreditsRoute, nil, testutils.WithBearer(s.token))
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var body CreditsResponse
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal(int64(42), body.Credits)
	s.InDelta(12.5, body.Balance, 0.0001)
}

func (s *HandlersTestSuite) TestCreditsUserNotFound() {
	s.account.EXPECT().GetAccount(gomock.Any(), s.userID).Return(nil, domain.ErrUserNotFound)

	res := s.request(http.MethodGet, RouteGroup+UserCreditsRoute, nil, testutils.WithBearer(s.token))
	s.assertError(res, http.StatusNotFound, domain.KindNotFound.String())
}

func (s *HandlersTestSuite) TestTransactions() {
	paymentID := "pi_" + gofakeit.LetterN(12)
	s.account.EXPECT().ListTransactions(gomock.Any(), s.userID, uint(5)).Return([]domain.Transaction{{
		ID:          uuid.New(),
		UserID:      s.userID,
		Amount:      decimal.RequireFromString("9.99"),
		Type:        domain.TransactionTypeCreditPurchase,
		Status:      domain.TransactionStatusPending,
		PaymentID:   &paymentID,
		Description: "Purchase of Pro",
		Metadata:    domain.Metadata{"packageId": "pro"},
		CreatedAt:   time.Now(),
	}}, nil)

	res := s.request(http.MethodGet, RouteGroup+TransactionsRoute+"?limit=5", nil, testutils.WithBearer(s.token))
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var body []TransactionResponseItem
	testutils.DecodeBody(s.T(), res, &body)
	s.Require().Len(body, 1)
	s.Equal("CREDIT_PURCHASE", body[0].Type)
	s.Equal("PENDING", body[0].Status)
	s.Require().NotNil(body[0].PaymentID)
	s.Equal(paymentID, *body[0].PaymentID)
}

func (s *HandlersTestSuite) TestTransactionsInvalidLimit() {
	res := s.request(http.MethodGet, RouteGroup+TransactionsRoute+"?limit=-1", nil, testutils.WithBearer(s.token))
	s.assertError(res, http.StatusBadRequest, domain.KindValidation.String())
}

func (s *HandlersTestSuite) TestSpend() {
	txID := uuid.New()
	s.spender.EXPECT().Spend(gomock.Any(), s.userID, "chess", "").Return(&service.SpendResult{
		TransactionID:    txID,
		RemainingCredits: 7,
		CreditsSpent:     3,
	}, nil)

	res := s.request(http.MethodPost, RouteGroup+SpendRoute, map[string]string{"gameId": "chess"},
		testutils.WithBearer(s.token))
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var body SpendResponse
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal(txID.String(), body.TransactionID)
	s.Equal(int64(7), body.RemainingCredits)
	s.Equal(int64(3), body.CreditsSpent)
}

func (s *HandlersTestSuite) TestSpendErrors() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient credits", domain.ErrInsufficientCredits, http.StatusBadRequest, "insufficient_credits"},
		{"unknown game", domain.ErrGameCostNotFound, http.StatusNotFound, "not_found"},
		{"unknown user", domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"transient", domain.ErrTransientStore.Wrap(errors.New("serialization failure")),
			http.StatusServiceUnavailable, "transient_store_failure"},
		{"unexpected", domain.ErrUnexpected.Wrap(errors.New("boom")), http.StatusInternalServerError, "unexpected_error"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "unexpected_error"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.spender.EXPECT().Spend(gomock.Any(), s.userID, "chess", "blitz").Return(nil, tc.err)

			res := s.request(http.MethodPost, RouteGroup+SpendRoute,
				map[string]string{"gameId": "chess", "gameMode": "blitz"}, testutils.WithBearer(s.token))
			s.assertError(res, tc.status, tc.code)
		})
	}
}

func (s *HandlersTestSuite) TestSpendUnknownMixedCaseGame() {
	s.spender.EXPECT().Spend(gomock.Any(), s.userID, "Chess", "").Return(nil, domain.ErrGameCostNotFound)

	res := s.request(http.MethodPost, RouteGroup+SpendRoute, map[string]string{"gameId": "Chess"},
		testutils.WithBearer(s.token))
	s.assertError(res, http.StatusNotFound, domain.KindNotFound.String())
}

func (s *HandlersTestSuite) TestSpendUnexpectedHidesCause() {
	s.spender.EXPECT().Spend(gomock.Any(), s.userID, "chess", "").
		Return(nil, domain.ErrUnexpected.Wrap(errors.New("pq: secret table detail")))

	res := s.request(http.MethodPost, RouteGroup+SpendRoute, map[string]string{"gameId": "chess"},
		testutils.WithBearer(s.token))
	var body errorBody
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal("internal server error", body.Error)
	s.NotContains(body.Error, "secret")
}

func (s *HandlersTestSuite) TestSpendValidation() {
	cases := []struct {
		name string
		body any
	}{
		{"missing game", map[string]string{}},
		{"bad slug", map[string]string{"gameId": "Chess Game!"}},
		{"bad mode", map[string]string{"gameId": "chess", "gameMode": "../x"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			res := s.request(http.MethodPost, RouteGroup+SpendRoute, tc.body, testutils.WithBearer(s.token))
			s.assertError(res, http.StatusBadRequest, domain.KindValidation.String())
		})
	}
}

func (s *HandlersTestSuite) TestPurchase() {
	pkg := domain.CreditPackage{
		ID: "pro", Name: "Pro", Price: decimal.RequireFromString("9.99"), Credits: 100, BonusCredits: 20,
	}
	s.purchaser.EXPECT().InitiatePurchase(gomock.Any(), s.userID, "pro").Return(&service.PurchaseResult{
		PaymentID:    "pi_123",
		ClientSecret: "pi_123_secret",
		TotalCredits: 120,
		Package:      pkg,
	}, nil)

	res := s.request(http.MethodPost, RouteGroup+PurchaseRoute, map[string]string{"packageId": "pro"},
		testutils.WithBearer(s.token))
	s.Require().Equal(http.StatusOK, res.StatusCode)

	var body PurchaseResponse
	testutils.DecodeBody(s.T(), res, &body)
	s.Equal("pi_123", body.PaymentID)
	s.Equal("pi_123_secret", body.ClientSecret)
	s.Equal(int64(120), body.TotalCredits)
	s.Equal("pro", body.Package.ID)
}

func (s *HandlersTestSuite) TestPurchaseErrors() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown package", domain.ErrPackageNotFound, http.StatusBadRequest, "not_found"},
		{"processor down", domain.ErrPaymentUnavailable.Wrap(errors.New("502")),
			http.StatusServiceUnavailable, "payment_unavailable"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.purchaser.EXPECT().InitiatePurchase(gomock.Any(), s.userID, "mega").Return(nil, tc.err)

			res := s.request(http.MethodPost, RouteGroup+PurchaseRoute, map[string]string{"packageId": "mega"},
				testutils.WithBearer(s.token))
			s.assertError(res, tc.status, tc.code)
		})
	}
}

func (s *HandlersTestSuite) webhookPayload(eventType webhook.EventType, metadata map[string]string) []byte {
	body := map[string]any{
		"id":      "evt_" + gofakeit.LetterN(10),
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_abc",
				"amount":   999,
				"currency": "usd",
				"status":   "succeeded",
				"metadata": metadata,
			},
		},
	}
	b, err := json.Marshal(body)
	s.Require().NoError(err)
	return b
}

func (s *HandlersTestSuite) sendWebhook(payload []byte, signature string) *http.Response {
	return testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + PaymentWebhookPath,
		Body:   bytes.NewReader(payload),
	}, testutils.WithHeader(webhook.SignatureHeader, signature))
}

func (s *HandlersTestSuite) assertReceived(res *http.Response) {
	s.Require().Equal(http.StatusOK, res.StatusCode)
	var body WebhookResponse
	testutils.DecodeBody(s.T(), res, &body)
	s.True(body.Received)
}

func (s *HandlersTestSuite) TestWebhookSucceeded() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{
		"userId": "77", "type": domain.PurchaseMetadataType, "packageId": "pro", "credits": "120",
	})
	s.settler.EXPECT().ReconcileSuccess(gomock.Any(), "pi_abc", int64(999), int64(77)).
		Return(&service.ReconcileResult{Matched: 1}, nil)

	res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
	s.assertReceived(res)
}

func (s *HandlersTestSuite) TestWebhookFailure() {
	for _, eventType := range []webhook.EventType{webhook.EventPaymentFailed, webhook.EventPaymentCanceled} {
		s.Run(string(eventType), func() {
			payload := s.webhookPayload(eventType, nil)
			s.settler.EXPECT().ReconcileFailure(gomock.Any(), "pi_abc").
				Return(&service.ReconcileResult{Matched: 0}, nil)

			res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
			s.assertReceived(res)
		})
	}
}

func (s *HandlersTestSuite) TestWebhookInvalidSignature() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{"userId": "77"})

	cases := []struct {
		name      string
		signature string
	}{
		{"missing", ""},
		{"wrong secret", webhook.Sign(payload, "another secret", time.Now())},
		{"expired", webhook.Sign(payload, s.webhookSecret, time.Now().Add(-time.Hour))},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.logHook.Reset()
			// settler не вызывается: gomock упадет на неожиданном вызове.
			res := s.sendWebhook(payload, tc.signature)
			s.assertReceived(res)

			var warned bool
			for _, entry := range s.logHook.AllEntries() {
				if entry.Level == logrus.WarnLevel && entry.Message == "rejected event with invalid signature" {
					warned = true
				}
			}
			s.True(warned)
		})
	}
}

func (s *HandlersTestSuite) TestWebhookTamperedBody() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{"userId": "77"})
	signature := webhook.Sign(payload, s.webhookSecret, time.Now())
	tampered := bytes.Replace(payload, []byte("999"), []byte("99900"), 1)

	res := s.sendWebhook(tampered, signature)
	s.assertReceived(res)
}

func (s *HandlersTestSuite) TestWebhookUnknownType() {
	payload := s.webhookPayload("customer.created", nil)
	res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
	s.assertReceived(res)
}

func (s *HandlersTestSuite) TestWebhookMissingUser() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{"packageId": "pro"})
	s.settler.EXPECT().ReconcileSuccess(gomock.Any(), "pi_abc", int64(999), int64(0)).
		Return(&service.ReconcileResult{Matched: 1, UserID: 77}, nil)

	res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
	s.assertReceived(res)
}

func (s *HandlersTestSuite) TestWebhookMalformedUser() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{"userId": "abc"})
	res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
	s.assertError(res, http.StatusBadRequest, domain.KindValidation.String())
}

func (s *HandlersTestSuite) TestWebhookTransient() {
	payload := s.webhookPayload(webhook.EventPaymentSucceeded, map[string]string{"userId": "77"})
	s.settler.EXPECT().ReconcileSuccess(gomock.Any(), "pi_abc", int64(999), int64(77)).
		Return(nil, domain.ErrTransientStore)

	res := s.sendWebhook(payload, webhook.Sign(payload, s.webhookSecret, time.Now()))
	s.assertError(res, http.StatusServiceUnavailable, domain.KindTransientStore.String())
}

func (s *HandlersTestSuite) TestCORSPreflight() {
	res := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodOptions,
		URL:    RouteGroup + PackagesRoute,
	},
		testutils.WithHeader("Origin", "http://localhost:3000"),
		testutils.WithHeader("Access-Control-Request-Method", http.MethodGet),
	)
	defer res.Body.Close()
	s.Equal(http.StatusNoContent, res.StatusCode)
	s.Equal("http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
}
