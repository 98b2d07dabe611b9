package data

import (
	"context"

	"github.com/google/uuid"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// OrderRepository stores order intents and their status flags.
type OrderRepository interface {
	Create(ctx context.Context, order *eventmodels.Order) (uint, error)
	// Get returns eventmodels.ErrOrderNotFound when no order has the id.
	Get(ctx context.Context, id uint) (*eventmodels.Order, error)
	Exists(ctx context.Context, id uint) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) error
	// SetExecuted never clears a set executed flag; doing so returns
	// eventmodels.ErrExecutedIsTerminal.
	SetExecuted(ctx context.Context, id uint, executed bool) error
	// ClaimForExecution atomically moves an active, unexecuted order to
	// executed=true, active=false and deactivates the target order, if any.
	// It reports false when the order was not in a claimable state.
	ClaimForExecution(ctx context.Context, id uint, deactivates *uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
	ListAll(ctx context.Context) ([]*eventmodels.Order, error)
}

// ExecutionRepository stores execution records, keyed by execution id.
type ExecutionRepository interface {
	// SaveExecution inserts or replaces the record.
	SaveExecution(ctx context.Context, report *eventmodels.ExecutionReport) error
	GetExecution(ctx context.Context, id uuid.UUID) (*eventmodels.ExecutionReport, error)
	ListExecutions(ctx context.Context, orderID uint) ([]*eventmodels.ExecutionReport, error)
}

type Repository interface {
	OrderRepository
	ExecutionRepository
	Close() error
}
