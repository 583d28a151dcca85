package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLifecycle(t *testing.T) {
	t.Run("forward transitions are allowed", func(t *testing.T) {
		require.True(t, StatusWaitingForPlayers.CanAdvanceTo(StatusWaitingForStory))
		require.True(t, StatusWaitingForStory.CanAdvanceTo(StatusInProgress))
		require.True(t, StatusInProgress.CanAdvanceTo(StatusCompleted))
	})

	t.Run("skipping story selection is allowed", func(t *testing.T) {
		// Trivia and hangman go straight into play.
		require.True(t, StatusWaitingForPlayers.CanAdvanceTo(StatusInProgress))
		require.True(t, StatusWaitingForPlayers.CanAdvanceTo(StatusCompleted))
	})

	t.Run("regressing is never allowed", func(t *testing.T) {
		require.False(t, StatusInProgress.CanAdvanceTo(StatusWaitingForPlayers))
		require.False(t, StatusInProgress.CanAdvanceTo(StatusWaitingForStory))
		require.False(t, StatusCompleted.CanAdvanceTo(StatusInProgress))
	})

	t.Run("no self transitions", func(t *testing.T) {
		require.False(t, StatusInProgress.CanAdvanceTo(StatusInProgress))
	})

	t.Run("unknown statuses never advance", func(t *testing.T) {
		unknown := Status("PAUSED")
		assert.False(t, unknown.CanAdvanceTo(StatusInProgress))
		assert.False(t, StatusWaitingForPlayers.CanAdvanceTo(unknown))
	})
}

func TestStatusKnown(t *testing.T) {
	for _, s := range []Status{StatusWaitingForPlayers, StatusWaitingForStory, StatusInProgress, StatusCompleted} {
		assert.True(t, s.Known(), "expected %s to be known", s)
	}
	assert.False(t, Status("").Known())
	assert.False(t, Status("SOMETHING_NEW").Known())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusWaitingForPlayers.Terminal())
}
