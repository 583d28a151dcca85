package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/vestigio/webclient/internal/api"
	"github.com/vestigio/webclient/internal/view"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

// app bundles what every handler needs: the config, the shared REST client
// (token added per request from the visitor's cookie), and the view renderer.
type app struct {
	cfg      *Config
	logger   zerolog.Logger
	api      *api.Client
	renderer *view.Renderer
}

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(a *app, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(a.cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("vestigio-web v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		a.logger.Debug().Msgf("SERVE: Version page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveHealthCheck(a *app, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(a.cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(a *app, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(a.cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveHomePage(a *app) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := tokenFromRequest(r); err != nil {
			http.Redirect(w, r, a.cfg.prefix+"/login", http.StatusTemporaryRedirect)
			return
		}
		http.Redirect(w, r, a.cfg.prefix+"/lobby", http.StatusTemporaryRedirect)
	}
}

// ServePage runs the web client until ctx is cancelled.
func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logger := newLogger(cfg)
	logger.Info().Msgf("START: vestigio-web v%s", releaseVersion)

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		api:      api.New(logger, cfg.apiURL, cfg.requestTimeout),
		renderer: renderer,
	}

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		// The game websocket outlives any write timeout; it manages its own
		// deadlines, so only the header read is bounded here.
		WriteTimeout: 0,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		logger.Error().Any("panic", i).Str("path", r.URL.Path).Msg("SERVE: Recovered from panic")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Erro", "Ocorreu um erro. Tente novamente."))
	}

	errs := make(chan error, 64)
	go func() {
		for writeErr := range errs {
			logger.Debug().Err(writeErr).Msg("SERVE: Write error")
		}
	}()

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	mux.GET(cfg.prefix+"/", serveHomePage(a))

	mux.GET(cfg.prefix+"/login", serveLoginPage(a))
	mux.POST(cfg.prefix+"/login", handleLogin(a))
	mux.GET(cfg.prefix+"/register", serveRegisterPage(a))
	mux.POST(cfg.prefix+"/register", handleRegister(a))
	mux.GET(cfg.prefix+"/logout", handleLogout(a))

	mux.GET(cfg.prefix+"/lobby", serveLobbyPage(a))
	mux.GET(cfg.prefix+"/lobby/new", serveNewGamePage(a))
	mux.POST(cfg.prefix+"/lobby/create", handleCreateGame(a))
	mux.POST(cfg.prefix+"/lobby/join", handleJoinGame(a))

	mux.GET(cfg.prefix+"/game/:roomcode", serveGamePage(a))
	mux.GET(cfg.prefix+"/game/:roomcode/ws", serveGameSocket(a))
	mux.GET(cfg.prefix+"/game/:roomcode/qr", serveGameQR(a))

	mux.GET(cfg.prefix+"/assets/*asset", serveAssets(a, errs))
	mux.GET(cfg.prefix+"/favicon.svg", serveFavicon(a, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(a, errs))
	mux.GET(cfg.prefix+"/robots.txt", serveRobots(a, errs))
	mux.GET(cfg.prefix+"/version", serveVersion(a, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	go func() {
		var srvErr error
		logger.Info().Msgf("SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			srvErr = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			srvErr = srv.ListenAndServe()
		}
		if srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
			fmt.Printf("%s | ERROR: %v\n", time.Now().Format(logDate), srvErr)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
