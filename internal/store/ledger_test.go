package store

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerStore() *Store {
	return New(zerolog.Nop(), nil, "ABC123", "token-1")
}

func TestDispatchLifecycle(t *testing.T) {
	s := newLedgerStore()

	gate := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- s.Dispatch("ask", func() error {
			<-gate
			return nil
		})
	}()

	require.Eventually(t, func() bool { return s.Pending("ask") }, 2*time.Second, 5*time.Millisecond)

	// A duplicate for the same subject is rejected while the first runs.
	err := s.Dispatch("ask", func() error { return nil })
	require.ErrorIs(t, err, ErrActionInFlight)

	close(gate)
	require.NoError(t, <-result)
	require.Eventually(t, func() bool { return !s.Pending("ask") }, 2*time.Second, 5*time.Millisecond)

	// Once cleared, the subject can be dispatched again.
	require.NoError(t, s.Dispatch("ask", func() error { return nil }))
}

func TestDispatchDistinctKeysRunConcurrently(t *testing.T) {
	s := newLedgerStore()

	gate := make(chan struct{})
	results := make(chan error, 2)
	for _, key := range []string{"answer:7", "answer:8"} {
		key := key
		go func() {
			results <- s.Dispatch(key, func() error {
				<-gate
				return nil
			})
		}()
	}

	// Both actions are in flight at the same time; neither blocked the other.
	require.Eventually(t, func() bool {
		return s.Pending("answer:7") && s.Pending("answer:8")
	}, 2*time.Second, 5*time.Millisecond)

	close(gate)
	require.NoError(t, <-results)
	require.NoError(t, <-results)
}

func TestDispatchClearsEntryOnFailure(t *testing.T) {
	s := newLedgerStore()

	errRefused := errors.New("refused")
	err := s.Dispatch("start", func() error { return errRefused })
	require.ErrorIs(t, err, errRefused)

	assert.False(t, s.Pending("start"))
	require.NoError(t, s.Dispatch("start", func() error { return nil }))
}

func TestPendingKeysReturnsCopy(t *testing.T) {
	s := newLedgerStore()

	gate := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.Dispatch("winner:3", func() error {
			<-gate
			return nil
		})
	}()
	require.Eventually(t, func() bool { return s.Pending("winner:3") }, 2*time.Second, 5*time.Millisecond)

	keys := s.PendingKeys()
	assert.True(t, keys["winner:3"])

	// Mutating the copy does not reach the ledger.
	delete(keys, "winner:3")
	assert.True(t, s.Pending("winner:3"))

	close(gate)
	require.NoError(t, <-done)
}
