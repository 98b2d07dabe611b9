package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

var _ Repository = (*GormRepository)(nil)

// GormRepository stores orders in postgres.
type GormRepository struct {
	db *gorm.DB
}

// Models lists the records GormRepository needs migrated.
func Models() []interface{} {
	return []interface{}{&OrderRecord{}, &ExecutionRecord{}}
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, o *eventmodels.Order) (uint, error) {
	rec := newOrderRecord(o)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("GormRepository.Create: failed to create order record: %w", err)
	}

	return rec.ID, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (*eventmodels.Order, error) {
	var rec OrderRecord
	err := r.db.WithContext(ctx).First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GormRepository.Get: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GormRepository.Get: %w", err)
	}

	return rec.ToOrder(), nil
}

func (r *GormRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("GormRepository.Exists: %w", err)
	}

	return count > 0, nil
}

func (r *GormRepository) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&OrderRecord{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("GormRepository.SetActive: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("GormRepository.SetActive: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	return nil
}

func (r *GormRepository) SetExecuted(ctx context.Context, id uint, executed bool) error {
	if !executed {
		o, err := r.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("GormRepository.SetExecuted: %w", err)
		}

		if o.Executed {
			return fmt.Errorf("GormRepository.SetExecuted: order #%d: %w", id, eventmodels.ErrExecutedIsTerminal)
		}

		return nil
	}

	res := r.db.WithContext(ctx).Model(&OrderRecord{}).Where("id = ?", id).Update("executed", true)
	if res.Error != nil {
		return fmt.Errorf("GormRepository.SetExecuted: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("GormRepository.SetExecuted: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	return nil
}

func (r *GormRepository) ClaimForExecution(ctx context.Context, id uint, deactivates *uint) (bool, error) {
	claimed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OrderRecord{}).
			Where("id = ? AND active = ? AND executed = ?", id, true, false).
			Updates(map[string]interface{}{"executed": true, "active": false})
		if res.Error != nil {
			return fmt.Errorf("failed to claim order #%d: %w", id, res.Error)
		}

		if res.RowsAffected != 1 {
			return nil
		}

		if deactivates != nil {
			if err := tx.Model(&OrderRecord{}).Where("id = ?", *deactivates).Update("active", false).Error; err != nil {
				return fmt.Errorf("failed to deactivate order #%d: %w", *deactivates, err)
			}
		}

		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("GormRepository.ClaimForExecution: %w", err)
	}

	return claimed, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&OrderRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("GormRepository.Delete: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return fmt.Errorf("GormRepository.Delete: order #%d: %w", id, eventmodels.ErrOrderNotFound)
	}

	return nil
}

func (r *GormRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&OrderRecord{}).Error; err != nil {
		return fmt.Errorf("GormRepository.DeleteAll: %w", err)
	}

	return nil
}

func (r *GormRepository) ListAll(ctx context.Context) ([]*eventmodels.Order, error) {
	var recs []OrderRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("GormRepository.ListAll: %w", err)
	}

	orders := make([]*eventmodels.Order, 0, len(recs))
	for i := range recs {
		orders = append(orders, recs[i].ToOrder())
	}

	return orders, nil
}

func (r *GormRepository) SaveExecution(ctx context.Context, report *eventmodels.ExecutionReport) error {
	rec, err := newExecutionRecord(report)
	if err != nil {
		return fmt.Errorf("GormRepository.SaveExecution: %w", err)
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error; err != nil {
		return fmt.Errorf("GormRepository.SaveExecution: %w", err)
	}

	return nil
}

func (r *GormRepository) GetExecution(ctx context.Context, id uuid.UUID) (*eventmodels.ExecutionReport, error) {
	var rec ExecutionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GormRepository.GetExecution: %s: %w", id, eventmodels.ErrExecutionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GormRepository.GetExecution: %w", err)
	}

	return rec.ToReport()
}

func (r *GormRepository) ListExecutions(ctx context.Context, orderID uint) ([]*eventmodels.ExecutionReport, error) {
	var recs []ExecutionRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("started_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("GormRepository.ListExecutions: %w", err)
	}

	reports := make([]*eventmodels.ExecutionReport, 0, len(recs))
	for i := range recs {
		report, err := recs[i].ToReport()
		if err != nil {
			return nil, fmt.Errorf("GormRepository.ListExecutions: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("GormRepository.Close: %w", err)
	}

	return sqlDB.Close()
}
