package data

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

var _ Repository = (*MemoryRepository)(nil)

// MemoryRepository keeps everything in process. A single mutex makes every
// method, including ClaimForExecution, atomic.
type MemoryRepository struct {
	mu         sync.Mutex
	nextID     uint
	orders     map[uint]*eventmodels.Order
	executions map[uuid.UUID]*eventmodels.ExecutionReport
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:     1,
		orders:     make(map[uint]*eventmodels.Order),
		executions: make(map[uuid.UUID]*eventmodels.ExecutionReport),
	}
}

func (r *MemoryRepository) Create(_ context.Context, order *eventmodels.Order) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := copyOrder(order)
	o.ID = r.nextID
	r.nextID++
	r.orders[o.ID] = o

	return o.ID, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uint) (*eventmodels.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, found := r.orders[id]
	if !found {
		return nil, fmt.Errorf("MemoryRepository.Get: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	return copyOrder(o), nil
}

func (r *MemoryRepository) Exists(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, found := r.orders[id]
	return found, nil
}

func (r *MemoryRepository) SetActive(_ context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, found := r.orders[id]
	if !found {
		return fmt.Errorf("MemoryRepository.SetActive: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	o.Active = active
	return nil
}

func (r *MemoryRepository) SetExecuted(_ context.Context, id uint, executed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, found := r.orders[id]
	if !found {
		return fmt.Errorf("MemoryRepository.SetExecuted: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	if o.Executed && !executed {
		return fmt.Errorf("MemoryRepository.SetExecuted: order #%d: %w", id, eventmodels.ErrExecutedIsTerminal)
	}

	o.Executed = executed
	return nil
}

func (r *MemoryRepository) ClaimForExecution(_ context.Context, id uint, deactivates *uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, found := r.orders[id]
	if !found {
		return false, fmt.Errorf("MemoryRepository.ClaimForExecution: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	if !o.Active || o.Executed {
		return false, nil
	}

	o.Executed = true
	o.Active = false

	if deactivates != nil {
		if target, found := r.orders[*deactivates]; found {
			target.Active = false
		}
	}

	return true, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.orders[id]; !found {
		return fmt.Errorf("MemoryRepository.Delete: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	delete(r.orders, id)
	return nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders = make(map[uint]*eventmodels.Order)
	return nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*eventmodels.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := make([]*eventmodels.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, copyOrder(o))
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (r *MemoryRepository) SaveExecution(_ context.Context, report *eventmodels.ExecutionReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executions[report.ExecutionID] = copyReport(report)
	return nil
}

func (r *MemoryRepository) GetExecution(_ context.Context, id uuid.UUID) (*eventmodels.ExecutionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, found := r.executions[id]
	if !found {
		return nil, fmt.Errorf("MemoryRepository.GetExecution: %s: %w", id, eventmodels.ErrExecutionNotFound)
	}

	return copyReport(report), nil
}

func (r *MemoryRepository) ListExecutions(_ context.Context, orderID uint) ([]*eventmodels.ExecutionReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reports []*eventmodels.ExecutionReport
	for _, report := range r.executions {
		if report.OrderID == orderID {
			reports = append(reports, copyReport(report))
		}
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].StartedAt.Before(reports[j].StartedAt) })
	return reports, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}

func copyOrder(o *eventmodels.Order) *eventmodels.Order {
	c := *o
	if o.ExecuteOnlyAfterID != nil {
		c.ExecuteOnlyAfterID = eventmodels.UintPtr(*o.ExecuteOnlyAfterID)
	}
	if o.DeactivatesOrderID != nil {
		c.DeactivatesOrderID = eventmodels.UintPtr(*o.DeactivatesOrderID)
	}
	return &c
}

func copyReport(r *eventmodels.ExecutionReport) *eventmodels.ExecutionReport {
	c := *r
	c.BrokerOrderIDs = append([]string{}, r.BrokerOrderIDs...)
	if r.Emergency != nil {
		e := *r.Emergency
		c.Emergency = &e
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
