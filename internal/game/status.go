package game

// Status is a session's lifecycle state. The server drives every transition;
// the client only observes. The lifecycle is monotonic:
//
//	WAITING_FOR_PLAYERS → WAITING_FOR_STORY_SELECTION → IN_PROGRESS → COMPLETED
//
// with the story-selection step skipped for game types that need no content
// selection.
type Status string

const (
	StatusWaitingForPlayers Status = "WAITING_FOR_PLAYERS"
	StatusWaitingForStory   Status = "WAITING_FOR_STORY_SELECTION"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusCompleted         Status = "COMPLETED"
)

// rank orders the lifecycle. Unknown statuses rank below everything so a
// confused server can never look like progress.
func (s Status) rank() int {
	switch s {
	case StatusWaitingForPlayers:
		return 1
	case StatusWaitingForStory:
		return 2
	case StatusInProgress:
		return 3
	case StatusCompleted:
		return 4
	default:
		return 0
	}
}

// Known reports whether the status is part of the exhaustive set. Views must
// treat anything unknown as a generic waiting state rather than fail.
func (s Status) Known() bool {
	return s.rank() != 0
}

// Terminal reports whether the session can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// CanAdvanceTo reports whether moving from s to next respects the monotonic
// lifecycle. Skipping intermediate states is allowed (story selection does
// not apply to every game type); regressing never is.
func (s Status) CanAdvanceTo(next Status) bool {
	if !s.Known() || !next.Known() {
		return false
	}
	return next.rank() > s.rank()
}
