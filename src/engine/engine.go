package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/data"
	"github.com/jiaming2012/tradebox/src/eventmodels"
	"github.com/jiaming2012/tradebox/src/eventpubsub"
	"github.com/jiaming2012/tradebox/src/notifier"
)

// Store is the persistence the engine needs: order intents and execution
// records.
type Store interface {
	data.OrderRepository
	data.ExecutionRepository
}

// Engine executes stored order intents against the brokerage. Runs of
// different orders may proceed in parallel; two runs of the same order are
// serialized by the repository's claim.
type Engine struct {
	repo     Store
	gateway  brokerage.Gateway
	notifier notifier.Notifier
	bus      *eventpubsub.Bus
	cfg      Config
	sleep    Sleeper
	now      func() time.Time
	wg       sync.WaitGroup
}

type Option func(*Engine)

func WithSleeper(s Sleeper) Option {
	return func(e *Engine) {
		e.sleep = s
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New builds an engine. bus may be nil when nothing consumes lifecycle events.
func New(repo Store, gateway brokerage.Gateway, n notifier.Notifier, bus *eventpubsub.Bus, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		gateway:  gateway,
		notifier: n,
		bus:      bus,
		cfg:      cfg,
		sleep:    sleepContext,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the order to completion and returns its report. Gate no-ops
// return a report with a skipped outcome and a nil error.
func (e *Engine) Execute(ctx context.Context, orderID uint) (*eventmodels.ExecutionReport, error) {
	return e.ExecuteWithID(ctx, uuid.New(), orderID)
}

func (e *Engine) ExecuteWithID(ctx context.Context, executionID uuid.UUID, orderID uint) (*eventmodels.ExecutionReport, error) {
	ctx, span := otel.Tracer("engine").Start(ctx, "Engine.Execute")
	defer span.End()

	span.SetAttributes(attribute.Int64("order.id", int64(orderID)), attribute.String("execution.id", executionID.String()))

	report := eventmodels.NewPendingExecutionReport(executionID, orderID, e.now())
	logger := log.WithContext(ctx).WithFields(log.Fields{"order_id": orderID, "execution_id": executionID.String()})

	order, outcome, err := e.checkPreconditions(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("Engine.Execute: %w", err)
	}

	if outcome != "" {
		report.Complete(outcome, e.now())
		span.SetAttributes(attribute.String("execution.outcome", string(outcome)))
		logger.Infof("Engine.Execute: order not executed: %s", outcome)
		return report, nil
	}

	// the claim is committed; from here the run is bounded by the attempt
	// cap, not by the caller
	ctx = context.WithoutCancel(ctx)
	report.Descriptor = order.Descriptor()

	if err := e.repo.SaveExecution(ctx, report); err != nil {
		logger.Errorf("Engine.Execute: failed to save pending execution: %v", err)
	}

	if !order.IsMarketBuy() && !order.IsMarketSell() {
		logger.Warnf("Engine.Execute: unsupported order type: %s %s", order.Side, order.Style)
		report.Complete(eventmodels.ExecutionOutcomeUnsupportedOrderType, e.now())
		e.persist(ctx, report)
		span.SetAttributes(attribute.String("execution.outcome", string(report.Outcome)))
		return report, nil
	}

	runErr := e.run(ctx, order, report)

	if runErr != nil {
		report.Error = runErr.Error()
		report.Complete(eventmodels.ExecutionOutcomeFailed, e.now())
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		report.Complete(eventmodels.ExecutionOutcomeCompleted, e.now())
	}

	report.Message = summarize(order, report)
	e.notify(ctx, report.Message)
	e.persist(ctx, report)
	e.publish(eventmodels.ExecutionCompletedTopic, eventmodels.ExecutionCompletedEvent{Report: *report})

	span.SetAttributes(attribute.String("execution.outcome", string(report.Outcome)))
	logger.Infof("Engine.Execute: %s", report.Message)

	if runErr != nil {
		return report, fmt.Errorf("Engine.Execute: order %d: %w", orderID, runErr)
	}

	return report, nil
}

// Dispatch starts the order in the background and returns its execution id
// immediately. A pending record is saved first so the id can be queried at
// once.
func (e *Engine) Dispatch(ctx context.Context, orderID uint) (uuid.UUID, error) {
	if _, err := e.repo.Get(ctx, orderID); err != nil {
		return uuid.Nil, fmt.Errorf("Engine.Dispatch: %w", err)
	}

	executionID := uuid.New()
	pending := eventmodels.NewPendingExecutionReport(executionID, orderID, e.now())
	if err := e.repo.SaveExecution(ctx, pending); err != nil {
		return uuid.Nil, fmt.Errorf("Engine.Dispatch: failed to save pending execution: %w", err)
	}

	bg := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		report, err := e.ExecuteWithID(bg, executionID, orderID)
		if report == nil {
			// the gate itself failed; nothing else recorded the outcome
			pending.Error = err.Error()
			pending.Complete(eventmodels.ExecutionOutcomeFailed, e.now())
			e.persist(bg, pending)
			return
		}

		if report.Outcome.Skipped() {
			e.persist(bg, report)
		}
	}()

	return executionID, nil
}

// Wait blocks until every dispatched execution has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) persist(ctx context.Context, report *eventmodels.ExecutionReport) {
	if err := e.repo.SaveExecution(ctx, report); err != nil {
		log.WithContext(ctx).Errorf("Engine.persist: failed to save execution %s: %v", report.ExecutionID, err)
	}
}

func (e *Engine) notify(ctx context.Context, msg string) {
	if err := e.notifier.Send(ctx, msg); err != nil {
		log.WithContext(ctx).Errorf("Engine.notify: failed to send report: %v", err)
	}
}

func (e *Engine) publish(topic string, event interface{}) {
	if e.bus != nil {
		e.bus.Publish(topic, event)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, eventmodels.ErrOrderNotFound)
}
