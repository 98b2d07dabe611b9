package eventpubsub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	t.Run("serial subscribers see events in order", func(t *testing.T) {
		bus := New()

		var mu sync.Mutex
		var got []int
		require.NoError(t, bus.Subscribe("test", "numbers", func(n int) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, n)
		}, true))

		for i := 0; i < 5; i++ {
			bus.Publish("numbers", i)
		}

		bus.WaitAsync()
		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	})

	t.Run("non-function callbacks are rejected", func(t *testing.T) {
		bus := New()

		err := bus.Subscribe("test", "numbers", 42, false)
		assert.Error(t, err)
		assert.False(t, bus.HasSubscribers("numbers"))
	})

	t.Run("publishing without subscribers is a no-op", func(t *testing.T) {
		bus := New()
		bus.Publish("nobody", "hello")
		bus.WaitAsync()
	})
}
