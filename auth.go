/*
Copyright © 2026 Vestigio <dev@vestigio.app>
*/

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/vestigio/webclient/internal/api"
)

// The bearer token lives in a durable cookie under this fixed name; logout
// is the only thing that removes it.
const tokenCookieName = "vestigio_token"

const tokenCookieMaxAge = 30 * 24 * time.Hour

func tokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNotLoggedIn
	}
	return cookie.Value, nil
}

func setTokenCookie(cfg *Config, w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// requireUser resolves the visitor's token to a profile. An expired or
// invalid token clears the cookie and bounces the visitor to login; any
// other failure renders an error page. The bool reports whether the caller
// may proceed.
func requireUser(a *app, w http.ResponseWriter, r *http.Request) (*api.User, string, bool) {
	token, err := tokenFromRequest(r)
	if err != nil {
		http.Redirect(w, r, a.cfg.prefix+"/login", http.StatusTemporaryRedirect)
		return nil, "", false
	}

	user, err := a.api.WithToken(token).Me(r.Context())
	if errors.Is(err, api.ErrUnauthorized) {
		a.logger.Info().Str("ip", realIP(r)).Msg("AUTH: Token rejected, forcing re-login")
		clearTokenCookie(w)
		http.Redirect(w, r, a.cfg.prefix+"/login", http.StatusTemporaryRedirect)
		return nil, "", false
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("AUTH: Profile lookup failed")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(a.cfg, w)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(newPage("Erro", "Servidor de jogo indisponível. Tente novamente.")))
		return nil, "", false
	}

	return user, token, true
}

type authPageData struct {
	Prefix string
	Flash  string
	Email  string
	Name   string
}

func serveLoginPage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		renderPage(a, w, "login.html", authPageData{Prefix: a.cfg.prefix})
	}
}

func handleLogin(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		email := r.PostFormValue("email")
		password := r.PostFormValue("password")

		token, err := a.api.Authenticate(r.Context(), email, password)
		if err != nil {
			a.logger.Info().Err(err).Str("ip", realIP(r)).Msg("AUTH: Login failed")
			renderPage(a, w, "login.html", authPageData{
				Prefix: a.cfg.prefix,
				Flash:  "E-mail ou senha inválidos.",
				Email:  email,
			})
			return
		}

		a.logger.Info().Str("ip", realIP(r)).Msg("AUTH: Login ok")
		setTokenCookie(a.cfg, w, token)
		http.Redirect(w, r, a.cfg.prefix+"/lobby", http.StatusSeeOther)
	}
}

func serveRegisterPage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		renderPage(a, w, "register.html", authPageData{Prefix: a.cfg.prefix})
	}
}

func handleRegister(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		name := r.PostFormValue("name")
		email := r.PostFormValue("email")
		password := r.PostFormValue("password")

		token, err := a.api.Register(r.Context(), name, email, password)
		if err != nil {
			a.logger.Info().Err(err).Str("ip", realIP(r)).Msg("AUTH: Registration failed")
			renderPage(a, w, "register.html", authPageData{
				Prefix: a.cfg.prefix,
				Flash:  "Não foi possível criar a conta.",
				Email:  email,
				Name:   name,
			})
			return
		}

		setTokenCookie(a.cfg, w, token)
		http.Redirect(w, r, a.cfg.prefix+"/lobby", http.StatusSeeOther)
	}
}

func handleLogout(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		clearTokenCookie(w)
		http.Redirect(w, r, a.cfg.prefix+"/login", http.StatusSeeOther)
	}
}
