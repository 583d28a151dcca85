// Package channel maintains the live publish/subscribe connection to the
// game server for one room.
//
// The channel dials the broker's websocket endpoint, runs a STOMP session
// over it with the bearer token in the connect headers, and subscribes to the
// room's broadcast topic. Every pushed message is a full session snapshot.
// Connection loss is recovered by redialing at a fixed delay; subscriptions
// do not survive a reconnect, so each established connection issues a fresh
// subscription after dropping any prior one.
package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/vestigio/webclient/internal/game"
)

// ErrNotConnected is returned by Publish while the channel is down. Publishes
// are never queued or retried; the caller decides whether to resubmit.
var ErrNotConnected = errors.New("not connected to the game server")

const defaultReconnectDelay = 5 * time.Second

// EventType discriminates channel events.
type EventType int

const (
	// EventConnected fires after the subscription to the room topic is live.
	EventConnected EventType = iota
	// EventDisconnected fires when the connection drops for any reason.
	EventDisconnected
	// EventSnapshot carries a pushed session snapshot.
	EventSnapshot
)

// Event is one entry of the ordered stream a channel emits. Snapshot events
// are delivered in broker-send order on a single subscription.
type Event struct {
	Type    EventType
	Session *game.Session
}

// Options configures a channel for one room.
type Options struct {
	// BrokerURL is the websocket endpoint of the game broker, e.g.
	// ws://host:8080/ws.
	BrokerURL string
	// RoomCode scopes the subscription and all publish destinations.
	RoomCode string
	// Token is the bearer credential sent in the connect headers.
	Token string
	// ReconnectDelay is the fixed pause between redial attempts.
	ReconnectDelay time.Duration
}

// Channel is the real-time connection for one room. Create with New, drive
// with Run, and stop by cancelling Run's context; the event stream closes
// once Run has torn everything down, so no event outlives the owner.
type Channel struct {
	logger zerolog.Logger
	opts   Options

	events chan Event

	mu   sync.Mutex
	conn *stomp.Conn
	sub  *stomp.Subscription

	connected bool
	lastErr   string
}

// New builds a channel. If the room code or token is empty, the channel never
// dials and simply reports disconnected until its context ends.
func New(logger zerolog.Logger, opts Options) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	return &Channel{
		logger: logger.With().Str("component", "channel").Str("room", opts.RoomCode).Logger(),
		opts:   opts,
		events: make(chan Event, 32),
	}
}

// Events returns the ordered event stream. It is closed when Run returns.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Connected reports whether the room subscription is currently live.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Err returns the most recent connection or publish error, or "" when the
// channel is healthy.
func (c *Channel) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Run drives the connection until ctx is cancelled. It always leaves the
// channel unsubscribed and disconnected, and closes the event stream last, so
// a torn-down owner can never receive a stale snapshot.
func (c *Channel) Run(ctx context.Context) {
	defer close(c.events)
	defer c.teardown()

	if c.opts.RoomCode == "" || c.opts.Token == "" {
		c.logger.Debug().Msg("CHANNEL: Missing room code or token, staying offline")
		<-ctx.Done()
		return
	}

	wait := backoff.WithContext(backoff.NewConstantBackOff(c.opts.ReconnectDelay), ctx)

	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.setErr(err.Error())
			c.logger.Warn().Err(err).Msg("CHANNEL: Connection lost, will reconnect")
		}

		next := wait.NextBackOff()
		if next == backoff.Stop {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(next):
		}
	}
}

// session runs one connect/subscribe/read cycle and returns when the
// connection dies or ctx is cancelled.
func (c *Channel) session(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.opts.Token)

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.BrokerURL, header)
	if err != nil {
		return fmt.Errorf("dialing broker: %w", err)
	}

	conn, err := stomp.Connect(newWSStream(ws),
		stomp.ConnOpt.Header("Authorization", "Bearer "+c.opts.Token),
		stomp.ConnOpt.HeartBeat(0, 0),
	)
	if err != nil {
		_ = ws.Close()
		return fmt.Errorf("stomp connect: %w", err)
	}

	sub, err := c.resubscribe(conn)
	if err != nil {
		_ = conn.Disconnect()
		return fmt.Errorf("subscribing to room topic: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.sub = sub
	c.connected = true
	c.lastErr = ""
	c.mu.Unlock()

	c.logger.Info().Msg("CHANNEL: Connected and subscribed")
	c.emit(ctx, Event{Type: EventConnected})

	err = c.readLoop(ctx, sub)

	c.mu.Lock()
	c.connected = false
	c.conn = nil
	c.sub = nil
	c.mu.Unlock()

	_ = sub.Unsubscribe()
	_ = conn.Disconnect()

	c.emit(ctx, Event{Type: EventDisconnected})
	return err
}

// resubscribe replaces any prior subscription with a fresh one, so a
// reconnect can never leave two subscriptions active for the same room.
func (c *Channel) resubscribe(conn *stomp.Conn) (*stomp.Subscription, error) {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.mu.Unlock()

	if old != nil && old.Active() {
		_ = old.Unsubscribe()
	}

	return conn.Subscribe("/topic/game/"+c.opts.RoomCode, stomp.AckAuto)
}

func (c *Channel) readLoop(ctx context.Context, sub *stomp.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				return errors.New("subscription closed")
			}
			if msg.Err != nil {
				return fmt.Errorf("broker error: %w", msg.Err)
			}

			session, err := game.ParseSession(msg.Body)
			if err != nil {
				// A malformed push is not fatal; keep the previous state.
				c.logger.Error().Err(err).Msg("CHANNEL: Discarding unparseable snapshot")
				continue
			}
			c.emit(ctx, Event{Type: EventSnapshot, Session: session})
		}
	}
}

// Publish sends a JSON body to a room-scoped destination. It fails softly
// while disconnected: the error is recorded and returned, nothing is queued.
func (c *Channel) Publish(destination string, body []byte) error {
	c.mu.Lock()
	conn := c.conn
	live := c.connected
	c.mu.Unlock()

	if !live || conn == nil {
		c.setErr("not connected to the game server")
		return ErrNotConnected
	}

	if err := conn.Send(destination, "application/json", body); err != nil {
		c.setErr(err.Error())
		return fmt.Errorf("publishing to %s: %w", destination, err)
	}
	return nil
}

func (c *Channel) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Channel) setErr(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func (c *Channel) teardown() {
	c.mu.Lock()
	conn := c.conn
	sub := c.sub
	c.conn = nil
	c.sub = nil
	c.connected = false
	c.mu.Unlock()

	if sub != nil && sub.Active() {
		_ = sub.Unsubscribe()
	}
	if conn != nil {
		_ = conn.Disconnect()
	}
}
