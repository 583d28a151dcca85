// Package game holds the client-side copy of the Vestigio session document.
//
// The server owns every value in here. The client only ever receives whole
// snapshots (over REST or the game topic) and replaces its copy wholesale,
// so none of these types carry mutation methods beyond read helpers.
package game

import (
	"encoding/json"
	"time"
)

// Type tags which mini-game a session is running.
type Type string

const (
	TypeVestigio Type = "VESTIGIO"
	TypeTrivia   Type = "TRIVIA"
	TypeHangman  Type = "HANGMAN"
)

// AnswerType is the closed set of answers a master can give to a question.
type AnswerType string

const (
	AnswerYes        AnswerType = "SIM"
	AnswerNo         AnswerType = "NAO"
	AnswerIrrelevant AnswerType = "IRRELEVANTE"
)

// ActionType names the generic player actions accepted by the REST action
// endpoint. Channel-published actions (ask, answer, pick-winner, end) have
// their own destinations and do not appear here.
type ActionType string

const (
	ActionAnswerQuestion ActionType = "ANSWER_QUESTION"
	ActionGuessLetter    ActionType = "GUESS_LETTER"
	ActionSkipQuestion   ActionType = "SKIP_QUESTION"
	ActionRevealHint     ActionType = "REVEAL_HINT"
	ActionSelectStory    ActionType = "SELECT_STORY"
	ActionPlayerReady    ActionType = "PLAYER_READY"
)

// Player is a session participant. The session's master is a distinguished
// participant flagged via Host, not a separate entity.
type Player struct {
	ID       int64  `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Host     bool   `json:"host,omitempty"`
}

// DisplayName prefers the username, falling back to the profile name.
func (p Player) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Name
}

// Story is a mystery scenario: the enigmatic situation shown to everyone and
// the full solution only the master sees.
type Story struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	EnigmaticSituation string `json:"enigmaticSituation,omitempty"`
	FullSolution       string `json:"fullSolution,omitempty"`
	Genre              string `json:"genre,omitempty"`
	Difficulty         string `json:"difficulty,omitempty"`
	CreatorName        string `json:"creatorName,omitempty"`
	Status             string `json:"status,omitempty"`
}

// Move is one question asked by a detective. The server fills Answer when the
// master resolves it; until then the move is pending. A resolved move never
// changes again.
type Move struct {
	ID int64 `json:"id"`

	// The server has shipped this field under three names over time.
	Question     string `json:"question,omitempty"`
	Text         string `json:"text,omitempty"`
	QuestionText string `json:"questionText,omitempty"`

	Player     *Player     `json:"player,omitempty"`
	AuthorName string      `json:"authorName,omitempty"`
	Answer     *AnswerType `json:"answer,omitempty"`
	CreatedAt  *time.Time  `json:"createdAt,omitempty"`
}

// QuestionValue returns the question text regardless of which field the
// server populated.
func (m Move) QuestionValue() string {
	switch {
	case m.Question != "":
		return m.Question
	case m.QuestionText != "":
		return m.QuestionText
	default:
		return m.Text
	}
}

// Pending reports whether the master has not answered this move yet.
func (m Move) Pending() bool {
	return m.Answer == nil
}

// Author returns the display name of whoever asked the question.
func (m Move) Author() string {
	if m.Player != nil {
		if name := m.Player.DisplayName(); name != "" {
			return name
		}
	}
	if m.AuthorName != "" {
		return m.AuthorName
	}
	return "Jogador"
}

// TriviaQuestion is one quiz question with its shuffled options.
type TriviaQuestion struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Category      string   `json:"category,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Options       []string `json:"options,omitempty"`
}

// TriviaScore is one player's running quiz total.
type TriviaScore struct {
	PlayerID       int64  `json:"playerId"`
	PlayerName     string `json:"playerName,omitempty"`
	TotalPoints    int    `json:"totalPoints"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
}

// HangmanState is the server's view of the word-guessing board.
type HangmanState struct {
	Difficulty      string   `json:"difficulty,omitempty"`
	Hint            string   `json:"hint,omitempty"`
	RevealedLetters []string `json:"revealedLetters,omitempty"`
	GuessedLetters  []string `json:"guessedLetters,omitempty"`
	WrongGuessCount int      `json:"wrongGuessCount"`
	MaxWrongGuesses int      `json:"maxWrongGuesses"`
	GameOver        bool     `json:"isGameOver"`
	GameWon         bool     `json:"isGameWon"`
	Winner          *Player  `json:"winner,omitempty"`
}

// Content is the game-specific payload, a tagged union keyed by the session's
// game type. Only the fields for the active type are populated.
type Content struct {
	// VESTIGIO
	Story        *Story  `json:"story,omitempty"`
	StoryOptions []Story `json:"storyOptions,omitempty"`

	// TRIVIA
	Questions            []TriviaQuestion `json:"questions,omitempty"`
	CurrentQuestionIndex int              `json:"currentQuestionIndex,omitempty"`
	Scores               []TriviaScore    `json:"scores,omitempty"`

	// HANGMAN
	Hangman *HangmanState `json:"hangmanState,omitempty"`
}

// Session is the authoritative shared game state, as pushed by the server.
type Session struct {
	ID       int64  `json:"id"`
	RoomCode string `json:"roomCode,omitempty"`
	Code     string `json:"code,omitempty"`
	GameType Type   `json:"gameType"`
	Status   Status `json:"status"`

	Content *Content `json:"content,omitempty"`

	// Older servers put the story at the top level.
	Story        *Story  `json:"story,omitempty"`
	StoryOptions []Story `json:"storyOptions,omitempty"`

	Master    *Player    `json:"master,omitempty"`
	Players   []Player   `json:"players,omitempty"`
	Moves     []Move     `json:"moves,omitempty"`
	Winner    *Player    `json:"winner,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Room returns the human-shareable room code under either field name.
func (s *Session) Room() string {
	if s.RoomCode != "" {
		return s.RoomCode
	}
	return s.Code
}

// ActiveStory returns the selected story wherever the server put it.
func (s *Session) ActiveStory() *Story {
	if s.Content != nil && s.Content.Story != nil {
		return s.Content.Story
	}
	return s.Story
}

// StoryChoices returns the story options offered to the master.
func (s *Session) StoryChoices() []Story {
	if s.Content != nil && len(s.Content.StoryOptions) > 0 {
		return s.Content.StoryOptions
	}
	return s.StoryOptions
}

// IsMaster reports whether the given user id is this session's master.
func (s *Session) IsMaster(userID int64) bool {
	return s.Master != nil && s.Master.ID == userID
}

// PendingMoves returns the moves still waiting for an answer, in order.
func (s *Session) PendingMoves() []Move {
	out := make([]Move, 0, len(s.Moves))
	for _, m := range s.Moves {
		if m.Pending() {
			out = append(out, m)
		}
	}
	return out
}

// AnsweredMoves returns the resolved moves, in order.
func (s *Session) AnsweredMoves() []Move {
	out := make([]Move, 0, len(s.Moves))
	for _, m := range s.Moves {
		if !m.Pending() {
			out = append(out, m)
		}
	}
	return out
}

// ParseSession decodes a pushed snapshot. Callers are expected to treat a
// decode failure as non-fatal and keep their previous session value.
func ParseSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
