package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAndRecovers(t *testing.T) {
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, 1, 10*time.Second)
	cb.now = func() time.Time { return clock }

	var transitions []string
	cb.SetStateChangeCallback(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	boom := errors.New("db down")
	failing := func() error { return boom }

	assert.ErrorIs(t, cb.Execute(failing, nil), boom)
	assert.ErrorIs(t, cb.Execute(failing, nil), boom)
	assert.Equal(t, StateOpen, cb.GetState())
	assert.ErrorIs(t, cb.Execute(func() error { return nil }, nil), ErrOpen)

	clock = clock.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(func() error { return nil }, nil))
	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestIgnoredErrorsDoNotTrip(t *testing.T) {
	cb := NewCircuitBreaker(1, 1, time.Minute)
	notFound := errors.New("not found")
	ignore := func(err error) bool { return errors.Is(err, notFound) }

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return notFound }, ignore), notFound)
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, 2, time.Second)
	cb.now = func() time.Time { return clock }

	cb.RecordFailure()
	clock = clock.Add(2 * time.Second)
	assert.True(t, cb.AllowRequest())
	assert.Equal(t, StateHalfOpen, cb.GetState())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.GetState())
}
