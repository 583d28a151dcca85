package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSession(t *testing.T) {
	t.Run("full snapshot", func(t *testing.T) {
		data := []byte(`{
			"id": 42,
			"roomCode": "ABC123",
			"gameType": "VESTIGIO",
			"status": "IN_PROGRESS",
			"master": {"id": 1, "username": "ana", "host": true},
			"players": [{"id": 2, "name": "Bruno"}],
			"content": {"story": {"id": 9, "title": "O Elevador"}},
			"moves": [
				{"id": 7, "question": "Foi de noite?", "player": {"id": 2, "name": "Bruno"}},
				{"id": 8, "text": "Ele estava sozinho?", "answer": "SIM"}
			]
		}`)

		s, err := ParseSession(data)
		require.NoError(t, err)
		require.NotNil(t, s)

		assert.Equal(t, "ABC123", s.Room())
		assert.Equal(t, TypeVestigio, s.GameType)
		assert.Equal(t, StatusInProgress, s.Status)
		assert.True(t, s.IsMaster(1))
		assert.False(t, s.IsMaster(2))

		require.NotNil(t, s.ActiveStory())
		assert.Equal(t, "O Elevador", s.ActiveStory().Title)

		require.Len(t, s.Moves, 2)
		assert.True(t, s.Moves[0].Pending())
		assert.False(t, s.Moves[1].Pending())
	})

	t.Run("legacy field names", func(t *testing.T) {
		data := []byte(`{"id": 1, "code": "XYZ789", "gameType": "HANGMAN", "status": "WAITING_FOR_PLAYERS", "story": {"id": 3, "title": "Top-level"}}`)

		s, err := ParseSession(data)
		require.NoError(t, err)
		assert.Equal(t, "XYZ789", s.Room())
		require.NotNil(t, s.ActiveStory())
		assert.Equal(t, "Top-level", s.ActiveStory().Title)
	})

	t.Run("malformed payload", func(t *testing.T) {
		s, err := ParseSession([]byte(`{"id": not json`))
		require.Error(t, err)
		assert.Nil(t, s)
	})
}

func TestMoveQuestionValue(t *testing.T) {
	assert.Equal(t, "a", Move{Question: "a", Text: "b", QuestionText: "c"}.QuestionValue())
	assert.Equal(t, "c", Move{Text: "b", QuestionText: "c"}.QuestionValue())
	assert.Equal(t, "b", Move{Text: "b"}.QuestionValue())
	assert.Equal(t, "", Move{}.QuestionValue())
}

func TestMoveAuthor(t *testing.T) {
	assert.Equal(t, "ana", Move{Player: &Player{Username: "ana", Name: "Ana Maria"}}.Author())
	assert.Equal(t, "Ana Maria", Move{Player: &Player{Name: "Ana Maria"}}.Author())
	assert.Equal(t, "bruno", Move{AuthorName: "bruno"}.Author())
	assert.Equal(t, "Jogador", Move{}.Author())
}

func TestSessionMovePartition(t *testing.T) {
	yes := AnswerYes
	s := &Session{Moves: []Move{
		{ID: 1},
		{ID: 2, Answer: &yes},
		{ID: 3},
	}}

	pending := s.PendingMoves()
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].ID)
	assert.Equal(t, int64(3), pending[1].ID)

	answered := s.AnsweredMoves()
	require.Len(t, answered, 1)
	assert.Equal(t, int64(2), answered[0].ID)
}

func TestSessionStoryChoices(t *testing.T) {
	content := []Story{{ID: 1, Title: "via content"}}
	topLevel := []Story{{ID: 2, Title: "via top level"}}

	s := &Session{Content: &Content{StoryOptions: content}, StoryOptions: topLevel}
	require.Len(t, s.StoryChoices(), 1)
	assert.Equal(t, int64(1), s.StoryChoices()[0].ID)

	s = &Session{StoryOptions: topLevel}
	require.Len(t, s.StoryChoices(), 1)
	assert.Equal(t, int64(2), s.StoryChoices()[0].ID)
}

func TestPlayerDisplayName(t *testing.T) {
	assert.Equal(t, "ana", Player{Username: "ana", Name: "Ana"}.DisplayName())
	assert.Equal(t, "Ana", Player{Name: "Ana"}.DisplayName())
	assert.Equal(t, "", Player{}.DisplayName())
}
