package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestigio/webclient/internal/game"
)

func mysterySession() *game.Session {
	yes := game.AnswerYes
	return &game.Session{
		ID:       42,
		RoomCode: "ABC123",
		GameType: game.TypeVestigio,
		Status:   game.StatusInProgress,
		Master:   &game.Player{ID: 1, Username: "ana", Host: true},
		Players:  []game.Player{{ID: 2, Username: "bruno"}},
		Content: &game.Content{
			Story: &game.Story{ID: 9, Title: "O Elevador", EnigmaticSituation: "Um homem aperta o botão errado.", FullSolution: "Ele era baixo demais."},
		},
		Moves: []game.Move{
			{ID: 7, Question: "Foi de noite?", Player: &game.Player{ID: 2, Username: "bruno"}},
			{ID: 5, Question: "Ele estava sozinho?", Answer: &yes},
		},
	}
}

func TestRenderMasterView(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	st := State{
		Session:   mysterySession(),
		UserID:    1,
		Connected: true,
		Pending:   map[string]bool{"answer:7": true},
	}
	require.True(t, st.IsMaster())

	out, err := r.Render(ViewMaster, st)
	require.NoError(t, err)
	html := string(out)

	// The pending question shows with its answer controls disabled while the
	// answer action is in flight.
	assert.Contains(t, html, "Foi de noite?")
	assert.Contains(t, html, `data-move-id="7"`)
	assert.Contains(t, html, "disabled")

	// The resolved question is history, not pending.
	assert.Contains(t, html, "Ele estava sozinho?")
	assert.Contains(t, html, "SIM")

	// Only the master sees the solution.
	assert.Contains(t, html, "Ele era baixo demais.")
}

func TestRenderDetectiveView(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(ViewDetective, State{
		Session:   mysterySession(),
		UserID:    2,
		Connected: true,
		Pending:   map[string]bool{},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "Um homem aperta o botão errado.")
	assert.Contains(t, html, "Foi de noite?")
	assert.Contains(t, html, "Pendente")
	assert.Contains(t, html, `data-action="ask"`)
}

func TestRenderTriviaView(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	session := &game.Session{
		ID:       43,
		RoomCode: "QUIZ42",
		GameType: game.TypeTrivia,
		Status:   game.StatusInProgress,
		Content: &game.Content{
			Questions: []game.TriviaQuestion{
				{ID: 11, Question: "Qual é a capital do Brasil?", Options: []string{"Rio", "Brasília", "Salvador"}},
			},
			CurrentQuestionIndex: 0,
			Scores:               []game.TriviaScore{{PlayerID: 2, PlayerName: "bruno", TotalPoints: 30, CorrectAnswers: 3, TotalQuestions: 5}},
		},
	}

	out, err := r.Render(ViewTrivia, State{Session: session, UserID: 2, Connected: true, Pending: map[string]bool{}})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "Qual é a capital do Brasil?")
	assert.Contains(t, html, "Brasília")
	assert.Contains(t, html, `data-question-id="11"`)
	assert.Contains(t, html, "bruno")
}

func TestRenderDisconnectedBanner(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(ViewWaiting, State{
		Session:   &game.Session{RoomCode: "ABC123", Status: game.StatusWaitingForPlayers},
		Connected: false,
		Pending:   map[string]bool{},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Reconectando")
}

func TestRenderUnknownViewFallsBack(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.Render(View("charades"), State{Pending: map[string]bool{}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Aguardando jogadores")
}

func TestStateCurrentQuestion(t *testing.T) {
	st := State{Session: &game.Session{Content: &game.Content{
		Questions:            []game.TriviaQuestion{{ID: 1}, {ID: 2}},
		CurrentQuestionIndex: 1,
	}}}
	require.NotNil(t, st.CurrentQuestion())
	assert.Equal(t, int64(2), st.CurrentQuestion().ID)

	st.Session.Content.CurrentQuestionIndex = 5
	assert.Nil(t, st.CurrentQuestion())

	assert.Nil(t, State{}.CurrentQuestion())
}
