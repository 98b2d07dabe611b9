package notifier

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Fanout sends every message to all of its notifiers. A failing notifier
// does not stop delivery to the others.
type Fanout struct {
	notifiers []Notifier
}

func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

func (f *Fanout) Send(ctx context.Context, msg string) error {
	var errs []error
	for i, n := range f.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			log.WithContext(ctx).Warnf("Fanout.Send: notifier %d failed: %v", i, err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("Fanout.Send: %d of %d notifiers failed: %w", len(errs), len(f.notifiers), errors.Join(errs...))
	}

	return nil
}
