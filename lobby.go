/*
Copyright © 2026 Vestigio <dev@vestigio.app>
*/

package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/vestigio/webclient/internal/api"
	"github.com/vestigio/webclient/internal/game"
)

type lobbyPageData struct {
	Prefix   string
	UserName string
	Stories  []game.Story
	Flash    string
}

func serveLobbyPage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		user, token, ok := requireUser(a, w, r)
		if !ok {
			return
		}

		data := lobbyPageData{
			Prefix:   a.cfg.prefix,
			UserName: user.Name,
		}

		stories, err := a.api.WithToken(token).Stories(r.Context())
		if err != nil {
			a.logger.Warn().Err(err).Msg("LOBBY: Story list unavailable")
			data.Flash = "Não foi possível carregar as histórias."
		} else {
			data.Stories = stories
		}

		renderPage(a, w, "lobby.html", data)
	}
}

type newGamePageData struct {
	Prefix   string
	UserName string
	Stories  []game.Story
	Flash    string
}

// serveNewGamePage offers the three game types; for the mystery game it also
// fetches a handful of random stories so the creator can pick one up front.
func serveNewGamePage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		user, token, ok := requireUser(a, w, r)
		if !ok {
			return
		}

		data := newGamePageData{
			Prefix:   a.cfg.prefix,
			UserName: user.Name,
		}

		stories, err := a.api.WithToken(token).RandomStories(r.Context(), 3)
		if err != nil {
			a.logger.Warn().Err(err).Msg("LOBBY: Random stories unavailable")
			data.Flash = "Não foi possível buscar histórias aleatórias."
		} else if len(stories) == 0 {
			data.Flash = "Nenhuma história encontrada."
		} else {
			data.Stories = stories
		}

		renderPage(a, w, "new_game.html", data)
	}
}

func handleCreateGame(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, token, ok := requireUser(a, w, r)
		if !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		gameType := game.Type(r.PostFormValue("gameType"))
		params := api.ConfigParams{}

		switch gameType {
		case game.TypeVestigio:
			storyID, err := strconv.ParseInt(r.PostFormValue("storyId"), 10, 64)
			if err != nil {
				http.Error(w, "missing story", http.StatusBadRequest)
				return
			}
			params["storyId"] = storyID
		case game.TypeTrivia:
			if count := r.PostFormValue("questionCount"); count != "" {
				if n, err := strconv.Atoi(count); err == nil {
					params["questionCount"] = n
				}
			}
			if category := r.PostFormValue("category"); category != "" {
				params["category"] = category
			}
		case game.TypeHangman:
			if difficulty := r.PostFormValue("difficulty"); difficulty != "" {
				params["difficulty"] = difficulty
			}
		default:
			http.Error(w, "unknown game type", http.StatusBadRequest)
			return
		}

		session, err := a.api.WithToken(token).CreateSession(r.Context(), gameType, params)
		if err != nil {
			a.logger.Error().Err(err).Msg("LOBBY: Create game failed")
			renderPage(a, w, "new_game.html", newGamePageData{
				Prefix: a.cfg.prefix,
				Flash:  "Erro ao criar a partida.",
			})
			return
		}

		a.logger.Info().Str("room", session.Room()).Str("type", string(gameType)).Msg("GAMES: Created game")
		http.Redirect(w, r, a.cfg.prefix+"/game/"+session.Room(), http.StatusSeeOther)
	}
}

// handleJoinGame only validates and redirects; the actual join request is
// issued by the session store once the room channel first connects.
func handleJoinGame(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, _, ok := requireUser(a, w, r); !ok {
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		roomCode := strings.ToUpper(strings.TrimSpace(r.PostFormValue("roomCode")))
		if roomCode == "" {
			renderPage(a, w, "lobby.html", lobbyPageData{
				Prefix: a.cfg.prefix,
				Flash:  "Código da sala inválido!",
			})
			return
		}

		http.Redirect(w, r, a.cfg.prefix+"/game/"+roomCode, http.StatusSeeOther)
	}
}
