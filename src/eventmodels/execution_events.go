package eventmodels

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ExecutionStartedTopic   = "execution.started"
	OrderAttemptTopic       = "execution.attempt"
	EmergencyFillTopic      = "execution.emergency_fill"
	ExecutionCompletedTopic = "execution.completed"
)

type ExecutionStartedEvent struct {
	ExecutionID uuid.UUID
	OrderID     uint
	Side        OrderSide
	Descriptor  string
	Opening     int
	Goal        int
}

type OrderAttemptEvent struct {
	ExecutionID   uuid.UUID
	OrderID       uint
	Attempt       int
	Side          OrderSide
	Quantity      int
	Price         decimal.Decimal
	BrokerOrderID string
}

type EmergencyFillEvent struct {
	ExecutionID uuid.UUID
	OrderID     uint
	Fill        EmergencyFill
}

type ExecutionCompletedEvent struct {
	Report ExecutionReport
}
