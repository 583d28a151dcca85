package channel

import (
	"encoding/json"

	"github.com/vestigio/webclient/internal/game"
)

// Typed wrappers for each recognized player action. Each publishes to the
// room-scoped destination the server listens on; the resulting state change
// comes back as the next pushed snapshot, never as a reply.

func (c *Channel) destination(suffix string) string {
	return "/app/game/" + c.opts.RoomCode + "/" + suffix
}

func (c *Channel) publishJSON(suffix string, body any) error {
	if body == nil {
		return c.Publish(c.destination(suffix), nil)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.Publish(c.destination(suffix), data)
}

// SelectStory picks the story the room will play (master only).
func (c *Channel) SelectStory(storyID int64) error {
	return c.publishJSON("select-story", map[string]int64{"storyId": storyID})
}

// Ask submits a detective question.
func (c *Channel) Ask(questionText string) error {
	return c.publishJSON("ask", map[string]string{"questionText": questionText})
}

// Answer resolves a pending question (master only).
func (c *Channel) Answer(moveID int64, answer game.AnswerType) error {
	return c.publishJSON("answer", map[string]any{"moveId": moveID, "answer": answer})
}

// PickWinner declares the winning detective (master only).
func (c *Channel) PickWinner(playerID int64) error {
	return c.publishJSON("pick-winner", map[string]int64{"playerId": playerID})
}

// End closes the game (master only).
func (c *Channel) End() error {
	return c.publishJSON("end", nil)
}
