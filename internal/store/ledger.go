package store

// The pending-action ledger tracks which user actions are currently in
// flight, keyed by the action's subject (e.g. "answer:7", "winner:3"). It
// exists only to drive disabled/loading controls and to reject duplicate
// submission of the same action; it is never persisted. Distinct keys run
// concurrently without cross-blocking.

// Dispatch runs fn with ledger[key] held. A second dispatch for the same key
// while the first is still running fails with ErrActionInFlight. The entry
// is always removed when fn returns, success or failure.
func (s *Store) Dispatch(key string, fn func() error) error {
	s.mu.Lock()
	if s.ledger[key] {
		s.mu.Unlock()
		return ErrActionInFlight
	}
	s.ledger[key] = true
	s.mu.Unlock()
	s.signal()

	defer func() {
		s.mu.Lock()
		delete(s.ledger, key)
		s.mu.Unlock()
		s.signal()
	}()

	return fn()
}

// Pending reports whether an action for key is in flight.
func (s *Store) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger[key]
}

// PendingKeys returns a copy of the in-flight set for rendering.
func (s *Store) PendingKeys() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.ledger))
	for k := range s.ledger {
		out[k] = true
	}
	return out
}
