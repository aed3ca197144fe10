package service

import "errors"

var (
	// ErrInvalidTransition is returned when a quiz action is not valid in the session's state.
	ErrInvalidTransition = errors.New("invalid quiz transition")
	// ErrQuestionTimedOut is returned when an answer arrives after the question's countdown expired.
	ErrQuestionTimedOut = errors.New("question timed out")
	// ErrNoSession is returned when the identity has no live quiz session.
	ErrNoSession = errors.New("no active quiz session")
	// ErrLevelLocked is returned when a level is beyond highest completed + 1.
	ErrLevelLocked = errors.New("level is locked")
	// ErrLevelNotFound is returned when a level has no questions.
	ErrLevelNotFound = errors.New("level not found")
	// ErrInvalidLevel is returned for level numbers below 1.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrChapterAlreadyPassed is returned for graded attempts on a passed chapter.
	ErrChapterAlreadyPassed = errors.New("chapter already passed")
	// ErrInvalidScore is returned for chapter scores outside 0-100.
	ErrInvalidScore = errors.New("score must be between 0 and 100")
	// ErrNoActiveChallenge is returned when there is no active daily challenge today.
	ErrNoActiveChallenge = errors.New("no active daily challenge")
	// ErrChallengeMismatch is returned when a daily challenge session is started on another level.
	ErrChallengeMismatch = errors.New("level is not today's daily challenge")
	// ErrFlushInProgress is returned when a leaderboard flush is skipped because another is running.
	ErrFlushInProgress = errors.New("leaderboard flush already in progress")
	// ErrGuestRequired is returned when a guest migration has no guest id.
	ErrGuestRequired = errors.New("guest id is required")
	// ErrUserRequired is returned when an operation needs an authenticated user.
	ErrUserRequired = errors.New("authenticated user required")
)
