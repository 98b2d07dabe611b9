package engine

import (
	"context"
	"time"

	"github.com/jiaming2012/tradebox/src/config"
)

// Delays are the fixed pauses of a run. The brokerage reports fills and
// position changes with a lag, so the loop waits instead of polling.
type Delays struct {
	FillWait            time.Duration
	SettleWait          time.Duration
	FinalSettleWait     time.Duration
	EmergencyBuyWait    time.Duration
	EmergencySellWait   time.Duration
	EmergencySettleWait time.Duration
	CleanupInterval     time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		FillWait:            2 * time.Second,
		SettleWait:          3 * time.Second,
		FinalSettleWait:     3 * time.Second,
		EmergencyBuyWait:    10 * time.Second,
		EmergencySellWait:   20 * time.Second,
		EmergencySettleWait: 2 * time.Second,
		CleanupInterval:     4 * time.Second,
	}
}

func ZeroDelays() Delays {
	return Delays{}
}

type Config struct {
	Delays             Delays
	PrerequisitePolicy config.PrerequisitePolicy
}

func NewConfig(c config.EngineConfig) Config {
	return Config{
		Delays: Delays{
			FillWait:            c.FillWait,
			SettleWait:          c.SettleWait,
			FinalSettleWait:     c.FinalSettleWait,
			EmergencyBuyWait:    c.EmergencyBuyWait,
			EmergencySellWait:   c.EmergencySellWait,
			EmergencySettleWait: c.EmergencySettleWait,
			CleanupInterval:     c.CleanupInterval,
		},
		PrerequisitePolicy: c.PrerequisitePolicy,
	}
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
