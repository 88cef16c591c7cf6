package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/solquest/engine"
	"github.com/cppla/solquest/models"
)

func TestBusDeliversInRegistrationOrder(t *testing.T) {
	bus := engine.NewBus()

	var order []string
	bus.Subscribe(func(engine.UserDataEvent) { order = append(order, "first") })
	bus.Subscribe(func(engine.UserDataEvent) { order = append(order, "second") })
	bus.Subscribe(func(engine.UserDataEvent) { order = append(order, "third") })

	bus.Publish(&models.UserRecord{WalletAddress: "wallet1"}, time.Now())

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBusCarriesWholeRecord(t *testing.T) {
	bus := engine.NewBus()

	var got engine.UserDataEvent
	bus.Subscribe(func(evt engine.UserDataEvent) { got = evt })

	ts := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rec := &models.UserRecord{WalletAddress: "wallet1", Points: 42}
	bus.Publish(rec, ts)

	require.NotNil(t, got.Record)
	assert.Equal(t, 42, got.Record.Points)
	assert.Equal(t, ts, got.Timestamp)
}

func TestBusLateSubscriberGetsNoReplay(t *testing.T) {
	bus := engine.NewBus()
	bus.Publish(&models.UserRecord{WalletAddress: "wallet1"}, time.Now())

	called := false
	bus.Subscribe(func(engine.UserDataEvent) { called = true })
	assert.False(t, called)

	bus.Publish(&models.UserRecord{WalletAddress: "wallet1"}, time.Now())
	assert.True(t, called)
}
