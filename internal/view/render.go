package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/vestigio/webclient/internal/game"
)

//go:embed templates/*.tmpl
var templates embed.FS

// State is everything a view may read. Pending holds the in-flight action
// keys so controls can disable themselves while their action is outstanding.
type State struct {
	Session   *game.Session
	UserID    int64
	UserName  string
	Connected bool
	Error     string
	Pending   map[string]bool
}

// IsMaster reports whether the local user is the session's master.
func (st State) IsMaster() bool {
	return st.Session != nil && st.Session.IsMaster(st.UserID)
}

// CurrentQuestion returns the trivia question in play, if any.
func (st State) CurrentQuestion() *game.TriviaQuestion {
	s := st.Session
	if s == nil || s.Content == nil {
		return nil
	}
	idx := s.Content.CurrentQuestionIndex
	if idx < 0 || idx >= len(s.Content.Questions) {
		return nil
	}
	return &s.Content.Questions[idx]
}

// Hangman returns the word-guessing board, if present.
func (st State) Hangman() *game.HangmanState {
	if st.Session == nil || st.Session.Content == nil {
		return nil
	}
	return st.Session.Content.Hangman
}

// Renderer turns a selected view plus state into an HTML fragment.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded view fragments.
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"join": strings.Join,
		"key":  func(parts ...any) string { return fmt.Sprint(parts...) },
	}
	tmpl, err := template.New("views").Funcs(funcs).ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing view templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the fragment for v. Unknown views fall back to the waiting
// room, matching Pick's degradation rule.
func (r *Renderer) Render(v View, st State) ([]byte, error) {
	name := string(v) + ".tmpl"
	if r.tmpl.Lookup(name) == nil {
		name = string(ViewWaiting) + ".tmpl"
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, st); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", v, err)
	}
	return buf.Bytes(), nil
}
