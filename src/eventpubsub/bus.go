package eventpubsub

import (
	"fmt"

	"github.com/asaskevich/EventBus"
	log "github.com/sirupsen/logrus"
)

// Bus carries execution lifecycle events from the engine to its consumers.
// Each process builds its own; there is no package-level bus.
type Bus struct {
	bus EventBus.Bus
}

func New() *Bus {
	return &Bus{bus: EventBus.New()}
}

func (b *Bus) Publish(topic string, event interface{}) {
	b.bus.Publish(topic, event)
}

// Subscribe registers callbackFn asynchronously. When serial is set, calls
// for the topic run one at a time in publish order.
func (b *Bus) Subscribe(subscriberName, topic string, callbackFn interface{}, serial bool) error {
	if err := b.bus.SubscribeAsync(topic, callbackFn, serial); err != nil {
		return fmt.Errorf("Bus.Subscribe: %s failed to subscribe to %s: %w", subscriberName, topic, err)
	}

	log.Debugf("%s subscribed to topic %s", subscriberName, topic)
	return nil
}

func (b *Bus) HasSubscribers(topic string) bool {
	return b.bus.HasCallback(topic)
}

// WaitAsync blocks until every in-flight async callback has returned.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
