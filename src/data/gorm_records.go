package data

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jiaming2012/tradebox/src/eventmodels"
)

type OrderRecord struct {
	ID                     uint    `gorm:"primaryKey"`
	Side                   string  `gorm:"type:varchar(8);not null"`
	Symbol                 string  `gorm:"type:varchar(16);not null"`
	OptionType             string  `gorm:"type:varchar(8);not null"`
	Strike                 float64 `gorm:"not null"`
	Expiration             string  `gorm:"type:varchar(10);not null"`
	Quantity               int     `gorm:"not null"`
	Style                  string  `gorm:"type:varchar(8);not null"`
	LimitPrice             float64
	Active                 bool `gorm:"not null;default:false"`
	Executed               bool `gorm:"not null;default:false"`
	EmergencyFillOnFailure bool `gorm:"not null;default:false"`
	MaxOrderAttempts       int  `gorm:"not null"`
	ExecuteOnlyAfterID     *uint
	DeactivatesOrderID     *uint
	MessageOnSuccess       string
	MessageOnFailure       string
	InstrumentID           string `gorm:"type:varchar(64);not null"`
	InstrumentSymbol       string `gorm:"type:varchar(64)"`
	BelowTick              float64
	AboveTick              float64
	CutoffPrice            float64
	CreatedAt              time.Time
}

func (OrderRecord) TableName() string {
	return "orders"
}

func newOrderRecord(o *eventmodels.Order) *OrderRecord {
	return &OrderRecord{
		Side:                   string(o.Side),
		Symbol:                 o.Symbol,
		OptionType:             string(o.OptionType),
		Strike:                 o.Strike,
		Expiration:             o.Expiration,
		Quantity:               o.Quantity,
		Style:                  string(o.Style),
		LimitPrice:             o.LimitPrice,
		Active:                 o.Active,
		Executed:               o.Executed,
		EmergencyFillOnFailure: o.EmergencyFillOnFailure,
		MaxOrderAttempts:       o.MaxOrderAttempts,
		ExecuteOnlyAfterID:     o.ExecuteOnlyAfterID,
		DeactivatesOrderID:     o.DeactivatesOrderID,
		MessageOnSuccess:       o.MessageOnSuccess,
		MessageOnFailure:       o.MessageOnFailure,
		InstrumentID:           o.Instrument.ID,
		InstrumentSymbol:       string(o.Instrument.Symbol),
		BelowTick:              o.Instrument.BelowTick,
		AboveTick:              o.Instrument.AboveTick,
		CutoffPrice:            o.Instrument.CutoffPrice,
		CreatedAt:              o.CreatedAt,
	}
}

func (r *OrderRecord) ToOrder() *eventmodels.Order {
	return &eventmodels.Order{
		ID:                     r.ID,
		Side:                   eventmodels.OrderSide(r.Side),
		Symbol:                 r.Symbol,
		OptionType:             eventmodels.OptionType(r.OptionType),
		Strike:                 r.Strike,
		Expiration:             r.Expiration,
		Quantity:               r.Quantity,
		Style:                  eventmodels.OrderStyle(r.Style),
		LimitPrice:             r.LimitPrice,
		Active:                 r.Active,
		Executed:               r.Executed,
		EmergencyFillOnFailure: r.EmergencyFillOnFailure,
		MaxOrderAttempts:       r.MaxOrderAttempts,
		ExecuteOnlyAfterID:     r.ExecuteOnlyAfterID,
		DeactivatesOrderID:     r.DeactivatesOrderID,
		MessageOnSuccess:       r.MessageOnSuccess,
		MessageOnFailure:       r.MessageOnFailure,
		Instrument: eventmodels.InstrumentMeta{
			ID:          r.InstrumentID,
			Symbol:      eventmodels.OptionSymbol(r.InstrumentSymbol),
			BelowTick:   r.BelowTick,
			AboveTick:   r.AboveTick,
			CutoffPrice: r.CutoffPrice,
		},
		CreatedAt: r.CreatedAt,
	}
}

type ExecutionRecord struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	OrderID     uint   `gorm:"index;not null"`
	Outcome     string `gorm:"type:varchar(32);not null"`
	Report      string `gorm:"type:text;not null"`
	StartedAt   time.Time
	CompletedAt *time.Time
}

func (ExecutionRecord) TableName() string {
	return "executions"
}

func newExecutionRecord(report *eventmodels.ExecutionReport) (*ExecutionRecord, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execution report: %w", err)
	}

	return &ExecutionRecord{
		ID:          report.ExecutionID.String(),
		OrderID:     report.OrderID,
		Outcome:     string(report.Outcome),
		Report:      string(body),
		StartedAt:   report.StartedAt,
		CompletedAt: report.CompletedAt,
	}, nil
}

func (r *ExecutionRecord) ToReport() (*eventmodels.ExecutionReport, error) {
	report, err := decodeReport(r.Report)
	if err != nil {
		return nil, err
	}

	if report.ExecutionID == uuid.Nil {
		report.ExecutionID, _ = uuid.Parse(r.ID)
	}

	return report, nil
}
