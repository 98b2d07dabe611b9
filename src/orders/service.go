package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/brokerage"
	"github.com/jiaming2012/tradebox/src/data"
	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// ValidationError is returned when a create request is malformed.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Service manages order intents.
type Service struct {
	repo    data.OrderRepository
	gateway brokerage.Gateway
	now     func() time.Time
}

func NewService(repo data.OrderRepository, gateway brokerage.Gateway) *Service {
	return &Service{repo: repo, gateway: gateway, now: time.Now}
}

// Create validates the request, resolves the contract with the brokerage and
// stores the order with its instrument metadata. Nothing is stored when the
// lookup fails.
func (s *Service) Create(ctx context.Context, req *eventmodels.CreateOrderRequest) (*eventmodels.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Err: err}
	}

	if req.ExecuteOnlyAfterID != nil && req.DeactivatesOrderID != nil && *req.ExecuteOnlyAfterID == *req.DeactivatesOrderID {
		return nil, &ValidationError{Err: errors.New("an order cannot both gate and be deactivated by the same order")}
	}

	meta, err := s.gateway.LookupInstrument(ctx, req.Symbol, req.Expiration, req.Strike, req.OptionType)
	if err != nil {
		return nil, fmt.Errorf("Service.Create: %w: %w", eventmodels.ErrInstrumentLookupFailed, err)
	}

	order := req.ToOrder(*meta, s.now())

	id, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("Service.Create: failed to store order: %w", err)
	}

	order.ID = id
	log.WithContext(ctx).Infof("Service.Create: created %s (instrument %s)", order, meta.ID)

	return order, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*eventmodels.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Service.Get: %w", err)
	}

	return order, nil
}

func (s *Service) List(ctx context.Context) ([]*eventmodels.Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("Service.List: %w", err)
	}

	return orders, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("Service.Delete: %w", err)
	}

	log.WithContext(ctx).Infof("Service.Delete: deleted order #%d", id)
	return nil
}

func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("Service.DeleteAll: %w", err)
	}

	log.WithContext(ctx).Info("Service.DeleteAll: deleted all orders")
	return nil
}

// SetActive toggles whether an order may be executed.
func (s *Service) SetActive(ctx context.Context, id uint, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("Service.SetActive: %w", err)
	}

	return nil
}
