/*
Copyright © 2026 Vestigio <dev@vestigio.app>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"github.com/vestigio/webclient/internal/api"
	"github.com/vestigio/webclient/internal/channel"
	"github.com/vestigio/webclient/internal/game"
	"github.com/vestigio/webclient/internal/store"
	"github.com/vestigio/webclient/internal/view"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type gamePageData struct {
	Prefix   string
	UserName string
	RoomCode string
}

func serveGamePage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		user, _, ok := requireUser(a, w, r)
		if !ok {
			return
		}

		roomCode := ps.ByName("roomcode")
		if roomCode == "" {
			http.Error(w, ErrMissingRoomCode.Error(), http.StatusBadRequest)
			return
		}

		renderPage(a, w, "game.html", gamePageData{
			Prefix:   a.cfg.prefix,
			UserName: user.Name,
			RoomCode: roomCode,
		})
	}
}

// serveGameQR renders a PNG QR code for the room URL so a game can be shared
// by pointing a phone at the screen.
func serveGameQR(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("roomcode") == "" {
			http.Error(w, ErrMissingRoomCode.Error(), http.StatusBadRequest)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		path := strings.TrimSuffix(r.URL.Path, "/qr")
		url := scheme + "://" + r.Host + path

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// serveGameSocket is the bridge between one browser tab and one room: it
// owns a channel plus store pair whose lifetime is exactly the socket's.
func serveGameSocket(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomCode := ps.ByName("roomcode")
		if roomCode == "" {
			http.Error(w, ErrMissingRoomCode.Error(), http.StatusBadRequest)
			return
		}

		token, err := tokenFromRequest(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := a.api.WithToken(token).Me(r.Context())
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			http.Error(w, "game server unavailable", http.StatusBadGateway)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.logger.Error().Err(err).Msg("GAMES: Upgrade failed")
			return
		}

		b := newBridge(a, conn, roomCode, token, user)
		b.run(r.Context())
	}
}

// Messages coming from the browser
type clientMessage struct {
	Type         string `json:"type"`
	StoryID      int64  `json:"storyId,omitempty"`
	QuestionText string `json:"questionText,omitempty"`
	MoveID       int64  `json:"moveId,omitempty"`
	Answer       string `json:"answer,omitempty"`
	PlayerID     int64  `json:"playerId,omitempty"`
	Letter       string `json:"letter,omitempty"`
	QuestionID   int64  `json:"questionId,omitempty"`
	AnswerIndex  int    `json:"answerIndex"`
}

// Messages sent to the browser
type updateMessage struct {
	Type      string `json:"type"` // "update"
	HTML      string `json:"html,omitempty"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type toastMessage struct {
	Type    string `json:"type"` // "toast"
	Message string `json:"message"`
}

type bridge struct {
	app      *app
	logger   zerolog.Logger
	ws       *websocket.Conn
	roomCode string
	token    string
	user     *api.User

	channel *channel.Channel
	store   *store.Store
	send    chan any
}

func newBridge(a *app, ws *websocket.Conn, roomCode, token string, user *api.User) *bridge {
	connID := uuid.NewString()
	logger := a.logger.With().
		Str("component", "bridge").
		Str("conn", connID).
		Str("room", roomCode).
		Logger()

	ch := channel.New(logger, channel.Options{
		BrokerURL:      a.cfg.brokerURL,
		RoomCode:       roomCode,
		Token:          token,
		ReconnectDelay: a.cfg.reconnectDelay,
	})

	return &bridge{
		app:      a,
		logger:   logger,
		ws:       ws,
		roomCode: roomCode,
		token:    token,
		user:     user,
		channel:  ch,
		store:    store.New(logger, a.api.WithToken(token), roomCode, token),
		send:     make(chan any, 8),
	}
}

// run drives the bridge until the browser goes away or ctx ends. Teardown of
// the channel and store is guaranteed on every exit path, including panics
// in handlers further down: once ctx is cancelled the channel unsubscribes,
// disconnects, and the store stops applying snapshots.
func (b *bridge) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer b.ws.Close()
	defer b.store.Close()

	go b.channel.Run(ctx)
	go b.store.Run(ctx, b.channel.Events())
	go b.writePump(ctx)
	go b.renderPump(ctx)

	b.logger.Info().Str("user", b.user.Name).Msg("GAMES: Player view attached")
	b.readLoop(ctx)
	b.logger.Info().Msg("GAMES: Player view detached")
}

// writePump is the only goroutine writing to the browser socket.
func (b *bridge) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.send:
			if err := b.ws.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// renderPump re-renders the selected view on every store change.
func (b *bridge) renderPump(ctx context.Context) {
	b.pushUpdate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.store.Changes():
			b.pushUpdate(ctx)
		}
	}
}

func (b *bridge) pushUpdate(ctx context.Context) {
	msg := updateMessage{
		Type:      "update",
		Connected: b.store.Connected(),
	}
	if errMsg := b.channel.Err(); errMsg != "" {
		msg.Error = errMsg
	} else {
		msg.Error = b.store.Err()
	}

	if session := b.store.Session(); session != nil {
		selected := view.Pick(session.Status, session.GameType, session.IsMaster(b.user.ID))
		html, err := b.app.renderer.Render(selected, view.State{
			Session:   session,
			UserID:    b.user.ID,
			UserName:  b.user.Name,
			Connected: msg.Connected,
			Error:     msg.Error,
			Pending:   b.store.PendingKeys(),
		})
		if err != nil {
			b.logger.Error().Err(err).Msg("GAMES: View render failed")
			return
		}
		msg.HTML = string(html)
	}

	select {
	case b.send <- msg:
	case <-ctx.Done():
	}
}

func (b *bridge) readLoop(ctx context.Context) {
	for {
		var msg clientMessage
		if err := b.ws.ReadJSON(&msg); err != nil {
			return
		}

		// Actions can block on the game server; never stall the read loop.
		go b.dispatch(ctx, msg)
	}
}

// dispatch routes one user intent through the pending-action ledger to
// either a channel publish or the REST action endpoint. The session itself
// is never mutated here; the next pushed snapshot carries the outcome.
func (b *bridge) dispatch(ctx context.Context, msg clientMessage) {
	rest := b.app.api.WithToken(b.token)

	var key string
	var fn func() error

	switch msg.Type {
	case "start":
		key = "start"
		fn = func() error {
			_, err := rest.StartSession(ctx, b.roomCode)
			return err
		}
	case "finish":
		key = "finish"
		fn = func() error {
			_, err := rest.FinishSession(ctx, b.roomCode)
			return err
		}
	case "end":
		key = "end"
		fn = func() error { return b.channel.End() }
	case "select-story":
		key = "select-story"
		fn = func() error { return b.channel.SelectStory(msg.StoryID) }
	case "ask":
		key = "ask"
		fn = func() error { return b.channel.Ask(msg.QuestionText) }
	case "answer":
		key = fmt.Sprintf("answer:%d", msg.MoveID)
		fn = func() error { return b.channel.Answer(msg.MoveID, game.AnswerType(msg.Answer)) }
	case "pick-winner":
		key = fmt.Sprintf("winner:%d", msg.PlayerID)
		fn = func() error { return b.channel.PickWinner(msg.PlayerID) }
	case "guess-letter":
		letter := strings.ToUpper(strings.TrimSpace(msg.Letter))
		if len(letter) != 1 {
			return
		}
		key = "letter:" + letter
		fn = func() error {
			return rest.SendAction(ctx, b.roomCode, game.ActionGuessLetter, map[string]string{"letter": letter})
		}
	case "trivia-answer":
		key = fmt.Sprintf("trivia:%d", msg.QuestionID)
		fn = func() error {
			return rest.SendAction(ctx, b.roomCode, game.ActionAnswerQuestion, map[string]any{
				"questionId":          msg.QuestionID,
				"selectedAnswerIndex": msg.AnswerIndex,
			})
		}
	case "skip":
		key = "skip"
		fn = func() error {
			return rest.SendAction(ctx, b.roomCode, game.ActionSkipQuestion, map[string]any{})
		}
	case "reveal-hint":
		key = "hint"
		fn = func() error {
			return rest.SendAction(ctx, b.roomCode, game.ActionRevealHint, map[string]any{})
		}
	case "ready":
		key = "ready"
		fn = func() error {
			return rest.SendAction(ctx, b.roomCode, game.ActionPlayerReady, map[string]any{})
		}
	default:
		b.logger.Debug().Str("type", msg.Type).Msg("GAMES: Ignoring unknown action")
		return
	}

	err := b.store.Dispatch(key, fn)
	if errors.Is(err, store.ErrActionInFlight) {
		// The control was disabled client-side; a duplicate is just a race.
		return
	}
	if err != nil {
		b.logger.Warn().Err(err).Str("action", msg.Type).Msg("GAMES: Action failed")
		b.toast(ctx, actionErrorText(err))
	}
}

func (b *bridge) toast(ctx context.Context, text string) {
	select {
	case b.send <- toastMessage{Type: "toast", Message: text}:
	case <-ctx.Done():
	}
}

func actionErrorText(err error) string {
	if errors.Is(err, channel.ErrNotConnected) {
		return "Não conectado ao servidor de jogo."
	}
	return "A ação falhou. Tente novamente."
}
