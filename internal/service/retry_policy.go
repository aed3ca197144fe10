package service

import (
	"fmt"
	"math"
	"time"

	"quizquest/internal/models"
)

// Retry policy names a chapter can declare.
const (
	PolicyUnlimited   = "unlimited"
	PolicyLimited     = "limited"
	PolicyOnce        = "once"
	PolicyProgressive = "progressive"
)

// RetryPolicy limits graded retries of a story chapter. Practice attempts
// are never limited.
type RetryPolicy struct {
	Name         string        `json:"name"`
	Unlimited    bool          `json:"unlimited"`
	MaxRetries   int           `json:"maxRetries"`
	Cooldown     time.Duration `json:"-"`
	HintsOnRetry bool          `json:"hintsOnRetry"`
}

var retryPolicies = map[string]RetryPolicy{
	PolicyUnlimited:   {Name: PolicyUnlimited, Unlimited: true},
	PolicyLimited:     {Name: PolicyLimited, MaxRetries: 3, Cooldown: 5 * time.Minute},
	PolicyOnce:        {Name: PolicyOnce, MaxRetries: 0, Cooldown: 60 * time.Minute},
	PolicyProgressive: {Name: PolicyProgressive, MaxRetries: 2, Cooldown: 10 * time.Minute, HintsOnRetry: true},
}

// PolicyFor returns the named policy; unknown names fall back to unlimited.
func PolicyFor(name string) RetryPolicy {
	if p, ok := retryPolicies[name]; ok {
		return p
	}
	return retryPolicies[PolicyUnlimited]
}

// RetryDecision says what a user may do next with a chapter.
type RetryDecision struct {
	Policy           string `json:"policy"`
	CanRetry         bool   `json:"canRetry"`
	CanPractice      bool   `json:"canPractice"`
	Passed           bool   `json:"passed"`
	Retries          int    `json:"retries"`
	RetriesRemaining int    `json:"retriesRemaining"` // -1 when unlimited
	MinutesRemaining int    `json:"minutesRemaining"`
	HintsUnlocked    bool   `json:"hintsUnlocked"`
	Reason           string `json:"reason,omitempty"`
}

// RetryBlockedError is returned for a graded attempt the policy does not allow.
type RetryBlockedError struct {
	Message          string
	MinutesRemaining int
}

func (e *RetryBlockedError) Error() string {
	return e.Message
}

// EvaluateRetry decides whether a graded attempt is allowed now. Practice
// is always allowed, so a chapter can never become unreachable.
func EvaluateRetry(policy RetryPolicy, attempt models.ChapterAttempt, now time.Time) RetryDecision {
	d := RetryDecision{
		Policy:           policy.Name,
		CanPractice:      true,
		Passed:           attempt.Passed,
		Retries:          attempt.Retries,
		RetriesRemaining: -1,
		HintsUnlocked:    policy.HintsOnRetry && attempt.Retries >= 1,
	}
	if !policy.Unlimited {
		d.RetriesRemaining = max(policy.MaxRetries-attempt.Retries, 0)
	}

	switch {
	case attempt.Passed:
		d.Reason = "Chapter already passed. Practice mode is available."
		return d
	case attempt.Fresh():
		d.CanRetry = true
		return d
	case policy.Unlimited:
		d.CanRetry = true
		return d
	case attempt.Retries >= policy.MaxRetries:
		d.Reason = "No retries left. Practice mode is available."
		return d
	}

	if wait := attempt.LastAttemptTime.Add(policy.Cooldown).Sub(now); wait > 0 {
		d.MinutesRemaining = int(math.Ceil(wait.Minutes()))
		d.Reason = fmt.Sprintf("Retry available in %d minute(s). Practice mode is available now.", d.MinutesRemaining)
		return d
	}
	d.CanRetry = true
	return d
}

// blockedError converts a negative decision into an error.
func (d RetryDecision) blockedError() error {
	if d.Passed {
		return ErrChapterAlreadyPassed
	}
	if d.CanRetry {
		return nil
	}
	return &RetryBlockedError{Message: d.Reason, MinutesRemaining: d.MinutesRemaining}
}

// ApplyAttempt returns the attempt record after a graded or practice attempt.
// It returns an error if the policy does not allow a graded attempt.
func ApplyAttempt(policy RetryPolicy, attempt models.ChapterAttempt, score, passScore int, practice bool, now time.Time) (models.ChapterAttempt, error) {
	if score < 0 || score > 100 {
		return attempt, ErrInvalidScore
	}
	if practice {
		attempt.PracticeAttempts++
		return attempt, nil
	}

	if err := EvaluateRetry(policy, attempt, now).blockedError(); err != nil {
		return attempt, err
	}

	attempt.LastAttemptTime = now
	attempt.Score = score
	if score >= passScore {
		attempt.Passed = true
	} else {
		attempt.Retries++
	}
	return attempt, nil
}
