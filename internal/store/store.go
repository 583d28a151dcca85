// Package store reconciles the two asynchronous sources of session state:
// the one-shot REST join performed after the channel first connects, and the
// stream of snapshots pushed on the room topic.
//
// The policy is most-recently-observed with pushes ranked higher: once any
// push has been seen, the REST snapshot is dead weight — every accepted
// action produces a fresh push reflecting the authoritative state. Before
// the first push, the REST snapshot is the working value.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vestigio/webclient/internal/channel"
	"github.com/vestigio/webclient/internal/game"
)

// ErrActionInFlight rejects a duplicate dispatch for a subject that already
// has an action outstanding.
var ErrActionInFlight = errors.New("action already in flight")

// sessionAPI is the slice of the REST client the store needs.
type sessionAPI interface {
	JoinSession(ctx context.Context, roomCode string) (*game.Session, error)
	GetSession(ctx context.Context, roomCode string) (*game.Session, error)
}

// Store owns the authoritative client-side session value for one room.
type Store struct {
	logger   zerolog.Logger
	api      sessionAPI
	roomCode string
	token    string

	mu        sync.Mutex
	session   *game.Session
	pushSeen  bool
	connected bool
	closed    bool
	lastErr   string
	joined    map[string]bool
	ledger    map[string]bool

	changes chan struct{}
}

// New builds a store for one (roomCode, token) pair.
func New(logger zerolog.Logger, api sessionAPI, roomCode, token string) *Store {
	return &Store{
		logger:   logger.With().Str("component", "store").Str("room", roomCode).Logger(),
		api:      api,
		roomCode: roomCode,
		token:    token,
		joined:   make(map[string]bool),
		ledger:   make(map[string]bool),
		changes:  make(chan struct{}, 1),
	}
}

// Run consumes channel events in receipt order until the stream closes or
// ctx is cancelled. Snapshots are applied on this single goroutine, so they
// can never be reordered.
func (s *Store) Run(ctx context.Context, events <-chan channel.Event) {
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case channel.EventConnected:
				s.setConnected(true)
				s.joinOnce(ctx)
			case channel.EventDisconnected:
				s.setConnected(false)
			case channel.EventSnapshot:
				s.applyPush(ev.Session)
			}
		}
	}
}

// Session returns the current authoritative session, or nil before any
// source has produced one.
func (s *Store) Session() *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Connected mirrors the channel's connection flag as last observed.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Err returns the most recent fetch error, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Changes signals (coalesced) whenever the session, connection flag, or
// ledger changes. Consumers re-read the accessors on every tick.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Close marks the store torn down. Snapshots still in flight are ignored
// from this point on.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// joinOnce performs the REST join at most once per (roomCode, token) pair,
// no matter how often the connection flag toggles. It runs async so a slow
// server cannot hold up the push stream.
func (s *Store) joinOnce(ctx context.Context) {
	key := s.roomCode + "\x00" + s.token

	s.mu.Lock()
	if s.closed || s.joined[key] {
		s.mu.Unlock()
		return
	}
	s.joined[key] = true
	s.mu.Unlock()

	go func() {
		session, err := s.api.JoinSession(ctx, s.roomCode)
		if err != nil {
			s.logger.Warn().Err(err).Msg("STORE: Join failed, falling back to plain read")
			session, err = s.api.GetSession(ctx, s.roomCode)
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("STORE: Could not fetch session")
			s.mu.Lock()
			s.lastErr = err.Error()
			s.mu.Unlock()
			s.signal()
			return
		}
		s.applyFetched(session)
	}()
}

// applyPush installs a pushed snapshot. Pushes always win and always
// supersede each other in receipt order.
func (s *Store) applyPush(session *game.Session) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pushSeen = true
	s.session = session
	s.lastErr = ""
	s.mu.Unlock()
	s.signal()
}

// applyFetched installs the REST snapshot unless a push already arrived
// while the fetch was in flight.
func (s *Store) applyFetched(session *game.Session) {
	s.mu.Lock()
	if s.closed || s.pushSeen {
		s.mu.Unlock()
		return
	}
	s.session = session
	s.lastErr = ""
	s.mu.Unlock()
	s.signal()
}

func (s *Store) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
	s.signal()
}

func (s *Store) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
