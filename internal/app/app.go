package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsdevblog/groph-credits/internal/config"
	"github.com/fsdevblog/groph-credits/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-credits/internal/service"
	"github.com/fsdevblog/groph-credits/internal/transport/api"
	"github.com/fsdevblog/groph-credits/internal/transport/payment"
	"github.com/fsdevblog/groph-credits/internal/transport/payment/client"
	"github.com/fsdevblog/groph-credits/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

// Run поднимает HTTP сервер и сверку зависших покупок. Возвращает context.Canceled после
// корректной остановки по сигналу.
func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app with config: %s", a.Config)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	// все операции журнала идут на READ COMMITTED, корректность держат условные UPDATE.
	unitOfWork := uow.NewUnitOfWork(conn, uow.WithIsoLevel(pgx.ReadCommitted))
	if regErr := pgrepo.RegisterRepositories(unitOfWork); regErr != nil {
		return fmt.Errorf("app run: %s", regErr.Error())
	}

	paymentClient := client.New(a.Config.PaymentAPIURL, a.Config.PaymentAPIKey)

	services, sErr := service.Factory(unitOfWork, paymentClient, service.PurchaseArgs{
		Currency: a.Config.PaymentCurrency,
		Provider: a.Config.PaymentProvider,
	}, a.Logger)
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, rErr := api.New(api.RouterArgs{
		Logger:            a.Logger,
		CatalogService:    services.CatalogService,
		SpendService:      services.SpendService,
		PurchaseService:   services.PurchaseService,
		SettlementService: services.SettlementService,
		AccountService:    services.AccountService,
		JWTSecretKey:      []byte(a.Config.JWTSecret),
		WebhookSecret:     a.Config.PaymentWebhookSecret,
		AllowedOrigins:    a.Config.AllowedOrigins,
	})
	if rErr != nil {
		return fmt.Errorf("app run: %s", rErr.Error())
	}

	srv := &http.Server{ //nolint:gosec
		Addr:    a.Config.RunAddress,
		Handler: router,
	}

	errChan := make(chan error, 1)
	go func() {
		if runErr := srv.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	sweeper := payment.NewSweeper(services.SettlementService, paymentClient, a.Config.SweepInterval, a.Logger).
		SetStaleAfter(a.Config.SweepStaleAfter).
		SetWorkers(a.Config.SweepWorkers)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(notifyCtx)
	}()

	var runErr error
	select {
	case <-notifyCtx.Done():
		runErr = notifyCtx.Err()
	case err := <-errChan:
		runErr = fmt.Errorf("app run: %w", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(notifyCtx), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.WithError(err).Error("http server shutdown")
	}
	wg.Wait()

	return runErr
}
