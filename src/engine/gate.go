package engine

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/tradebox/src/config"
	"github.com/jiaming2012/tradebox/src/eventmodels"
)

// checkPreconditions returns the claimed order, or the outcome that stops
// the run. Only a missing order or a repository failure is an error.
func (e *Engine) checkPreconditions(ctx context.Context, orderID uint) (*eventmodels.Order, eventmodels.ExecutionOutcome, error) {
	order, err := e.repo.Get(ctx, orderID)
	if err != nil {
		return nil, "", fmt.Errorf("checkPreconditions: failed to get order %d: %w", orderID, err)
	}

	if !order.Active {
		return nil, eventmodels.ExecutionOutcomeInactive, nil
	}

	if order.Executed {
		return nil, eventmodels.ExecutionOutcomeAlreadyExecuted, nil
	}

	if order.ExecuteOnlyAfterID != nil {
		met, err := e.prerequisiteMet(ctx, *order.ExecuteOnlyAfterID)
		if err != nil {
			return nil, "", fmt.Errorf("checkPreconditions: %w", err)
		}

		if !met {
			return nil, eventmodels.ExecutionOutcomePrerequisiteUnmet, nil
		}
	}

	// the claim is irreversible, so a logged out gateway leaves the order armed
	if _, ok := e.gateway.Session(); !ok {
		return nil, eventmodels.ExecutionOutcomeNotAuthenticated, nil
	}

	claimed, err := e.repo.ClaimForExecution(ctx, orderID, order.DeactivatesOrderID)
	if err != nil {
		return nil, "", fmt.Errorf("checkPreconditions: failed to claim order %d: %w", orderID, err)
	}

	if !claimed {
		return nil, eventmodels.ExecutionOutcomeClaimedElsewhere, nil
	}

	order.Executed = true
	order.Active = false

	return order, "", nil
}

func (e *Engine) prerequisiteMet(ctx context.Context, prerequisiteID uint) (bool, error) {
	prerequisite, err := e.repo.Get(ctx, prerequisiteID)
	if err != nil {
		if !isNotFound(err) {
			return false, fmt.Errorf("prerequisiteMet: failed to get order %d: %w", prerequisiteID, err)
		}

		if e.cfg.PrerequisitePolicy == config.PrerequisitePolicyBlock {
			return false, nil
		}

		log.WithContext(ctx).Warnf("prerequisiteMet: prerequisite order %d does not exist, proceeding", prerequisiteID)
		return true, nil
	}

	return prerequisite.Executed, nil
}
