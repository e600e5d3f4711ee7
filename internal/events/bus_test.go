package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(4)
	a, cancelA := bus.Subscribe()
	b, cancelB := bus.Subscribe()
	defer cancelA()
	defer cancelB()

	bus.Publish(CartChanged{UserID: "u1", Origin: "s1"})

	assert.Equal(t, CartChanged{UserID: "u1", Origin: "s1"}, <-a)
	assert.Equal(t, CartChanged{UserID: "u1", Origin: "s1"}, <-b)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(0)
	assert.NotPanics(t, func() { bus.Publish(CartChanged{UserID: "u1"}) })
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(CartChanged{UserID: "first"})
	bus.Publish(CartChanged{UserID: "second"})

	assert.Equal(t, "first", (<-ch).UserID)
	assert.Len(t, ch, 0)
}

func TestBus_CancelClosesAndIsIdempotent(t *testing.T) {
	bus := NewBus(1)
	ch, cancel := bus.Subscribe()
	assert.Equal(t, 1, bus.Subscribers())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.Subscribers())
	assert.NotPanics(t, func() { bus.Publish(CartChanged{UserID: "u1"}) })
}

func TestBus_ConcurrentPublishAndCancel(t *testing.T) {
	bus := NewBus(8)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		_, cancel := bus.Subscribe()
		go func() {
			defer wg.Done()
			bus.Publish(CartChanged{UserID: "u"})
		}()
		go func() {
			defer wg.Done()
			cancel()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.Subscribers())
}
