// Package view decides which game view a player sees and renders it.
//
// Selection is a pure function of (status, game type, whether the local user
// is the master) — no hidden state. Views treat the session as read-only:
// every mutation goes out as a published action, and the next pushed
// snapshot is what changes the screen.
package view

import "github.com/vestigio/webclient/internal/game"

// View names one renderable screen.
type View string

const (
	// ViewWaiting is the generic waiting room, also the fallback for any
	// status the client does not recognize.
	ViewWaiting View = "waiting"
	// ViewStorySelect lets the master choose between the offered stories.
	ViewStorySelect View = "story_select"
	// ViewStoryWait is what everyone else sees during story selection.
	ViewStoryWait View = "story_wait"
	// ViewMaster is the mystery game's master console.
	ViewMaster View = "master"
	// ViewDetective is the mystery game's player screen.
	ViewDetective View = "detective"
	// ViewTrivia is the quiz screen (same for master and players).
	ViewTrivia View = "trivia"
	// ViewHangman is the word-guessing screen.
	ViewHangman View = "hangman"
	// ViewCompleted is the end-of-game summary.
	ViewCompleted View = "completed"
)

// Pick selects exactly one view. Unknown statuses and game types degrade to
// the waiting room rather than erroring; the server may be newer than us.
func Pick(status game.Status, gameType game.Type, isMaster bool) View {
	switch status {
	case game.StatusWaitingForStory:
		// Only the mystery game has a content-selection step.
		if gameType != game.TypeVestigio {
			return ViewWaiting
		}
		if isMaster {
			return ViewStorySelect
		}
		return ViewStoryWait

	case game.StatusInProgress:
		switch gameType {
		case game.TypeVestigio:
			if isMaster {
				return ViewMaster
			}
			return ViewDetective
		case game.TypeTrivia:
			return ViewTrivia
		case game.TypeHangman:
			return ViewHangman
		default:
			return ViewWaiting
		}

	case game.StatusCompleted:
		return ViewCompleted

	default:
		return ViewWaiting
	}
}
