// Package payment сверяет незавершенные покупки с платежным провайдером.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/groph-credits/internal/domain"
	"github.com/fsdevblog/groph-credits/internal/transport/payment/client"
	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout         = 3 * time.Second
	defaultAPITimeout             = 10 * time.Second
	defaultLimitPerIteration uint = 50
	defaultWorkers           uint = 5
	defaultStaleAfter             = 15 * time.Minute
	defaultExpireAfter            = 24 * time.Hour
)

var ErrNoPending = errors.New("no stale pending transactions")

// Sweeper периодически находит покупки, для которых не пришло событие провайдера, спрашивает
// провайдера о состоянии намерения и завершает их через сервисный слой. Расчет идемпотентен,
// поэтому гонка с вебхуком безопасна.
type Sweeper struct {
	client            Client
	svs               Servicer
	l                 *logrus.Entry
	interval          time.Duration
	staleAfter        time.Duration
	expireAfter       time.Duration
	limitPerIteration uint
	workers           uint
	now               func() time.Time
}

func NewSweeper(svs Servicer, c Client, interval time.Duration, l logrus.FieldLogger) *Sweeper {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "payment",
		"module":    "sweeper",
	})

	return &Sweeper{
		client:            c,
		svs:               svs,
		l:                 loggerEntry,
		interval:          interval,
		staleAfter:        defaultStaleAfter,
		expireAfter:       defaultExpireAfter,
		limitPerIteration: defaultLimitPerIteration,
		workers:           defaultWorkers,
		now:               time.Now,
	}
}

// SetStaleAfter устанавливает возраст PENDING транзакции, после которого она считается зависшей.
func (s *Sweeper) SetStaleAfter(d time.Duration) *Sweeper {
	if d > 0 {
		s.staleAfter = d
	}
	return s
}

// SetExpireAfter устанавливает возраст, после которого неоплаченное намерение считается брошенным.
func (s *Sweeper) SetExpireAfter(d time.Duration) *Sweeper {
	if d > 0 {
		s.expireAfter = d
	}
	return s
}

// SetLimitPerIteration устанавливает кол-во транзакций, обрабатываемых в одной итерации.
func (s *Sweeper) SetLimitPerIteration(limit uint) *Sweeper {
	if limit > 0 {
		s.limitPerIteration = limit
	}
	return s
}

// SetWorkers устанавливает кол-во воркеров, опрашивающих провайдера.
func (s *Sweeper) SetWorkers(workers uint) *Sweeper {
	if workers > 0 {
		s.workers = workers
	}
	return s
}

// Run запускает сверку раз в interval (с разбросом) до отмены контекста. При нулевом interval сразу выходит.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.l.Info("Disabled")
		return
	}
	s.l.WithFields(logrus.Fields{
		"interval":          s.interval,
		"staleAfter":        s.staleAfter,
		"limitPerIteration": s.limitPerIteration,
		"workers":           s.workers,
	}).Info("Starting")

	for {
		wait := time.Duration(jitter(float64(s.interval), 0.1, 0.1)) //nolint:mnd
		select {
		case <-ctx.Done():
			s.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(wait):
			if err := s.sweep(ctx); err != nil && !errors.Is(err, ErrNoPending) {
				s.l.WithError(err).Error("sweep error")
			}
		}
	}
}

// sweepResult итог сверки одной транзакции.
type sweepResult struct {
	WorkerID  uint
	PaymentID string
	Action    string
	Error     error
}

const (
	actionSettled = "settled"
	actionFailed  = "failed"
	actionSkipped = "skipped"
)

// sweep выполняет одну итерацию: получение зависших транзакций, опрос провайдера и расчет.
func (s *Sweeper) sweep(ctx context.Context) error {
	pending, err := s.produce(ctx)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	for _, result := range s.runWorkers(ctx, pending) {
		l := s.l.WithFields(logrus.Fields{
			"worker":    result.WorkerID,
			"paymentID": result.PaymentID,
		})
		if result.Error != nil {
			l.WithError(result.Error).Warn("reconcile pending payment")
			continue
		}
		l.WithField("action", result.Action).Debug("pending payment checked")
	}
	return nil
}

// runWorkers раздает транзакции воркерам и собирает результаты (fan-out/fan-in).
func (s *Sweeper) runWorkers(ctx context.Context, pending []domain.Transaction) []sweepResult {
	taskCh := make(chan domain.Transaction, len(pending))
	for _, trans := range pending {
		taskCh <- trans
	}
	close(taskCh)

	resultCh := make(chan sweepResult, len(pending))

	wg := new(sync.WaitGroup)
	for i := range s.workers {
		wg.Add(1)
		go s.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()
	close(resultCh)

	results := make([]sweepResult, 0, len(pending))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (s *Sweeper) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan domain.Transaction,
	resultCh chan<- sweepResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-taskCh:
			if !ok {
				return
			}
			result := s.processTask(ctx, task)
			result.WorkerID = workerID
			resultCh <- result
		}
	}
}

// processTask запрашивает намерение у провайдера, при ответе 429 ждет Retry-After, и применяет его статус.
func (s *Sweeper) processTask(ctx context.Context, task domain.Transaction) sweepResult {
	paymentID := *task.PaymentID
	result := sweepResult{PaymentID: paymentID}

	var intent *domain.PaymentIntent
	for {
		reqCtx, cancel := context.WithTimeout(ctx, defaultAPITimeout)
		resp, err := s.client.GetPaymentIntent(reqCtx, paymentID)
		cancel()

		if err == nil {
			intent = resp
			break
		}
		var tooManyReq *client.TooManyRequestError
		if !errors.As(err, &tooManyReq) {
			result.Error = err
			return result
		}
		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			return result
		case <-time.After(tooManyReq.RetryAfter):
		}
	}

	svcCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	switch {
	case intent.Status == domain.PaymentIntentSucceeded:
		// сумма берется у провайдера, пользователь из нашей записи
		_, result.Error = s.svs.ReconcileSuccess(svcCtx, paymentID, intent.AmountMinor, task.UserID)
		result.Action = actionSettled
	case intent.Status == domain.PaymentIntentCanceled,
		intent.Status == domain.PaymentIntentRequiresPaymentMethod && s.now().Sub(task.CreatedAt) > s.expireAfter:
		_, result.Error = s.svs.ReconcileFailure(svcCtx, paymentID)
		result.Action = actionFailed
	default:
		result.Action = actionSkipped
	}
	return result
}

// produce получает зависшие транзакции. Возвращает ErrNoPending, если таких нет.
func (s *Sweeper) produce(ctx context.Context) ([]domain.Transaction, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	pending, err := s.svs.StalePending(produceCtx, s.now().Add(-s.staleAfter), s.limitPerIteration)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}

	withRef := pending[:0]
	for _, trans := range pending {
		if trans.PaymentID != nil && *trans.PaymentID != "" {
			withRef = append(withRef, trans)
		}
	}
	if len(withRef) == 0 {
		return nil, ErrNoPending
	}
	return withRef, nil
}
