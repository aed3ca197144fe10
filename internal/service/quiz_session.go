package service

import (
	"strings"
	"sync"
	"time"

	"quizquest/internal/config"
	"quizquest/internal/models"
)

// QuizState is the state of a quiz session.
type QuizState string

const (
	StateAnswering QuizState = "answering"
	StateSubmitted QuizState = "submitted"
	StateFinished  QuizState = "finished"
)

// SessionConfig describes the level a session plays.
type SessionConfig struct {
	Category       string
	Difficulty     string
	Level          int
	Questions      []models.Question
	Rules          config.GameRules
	DailyChallenge bool
}

// AnswerResult is the outcome of a submitted answer.
type AnswerResult struct {
	Index         int    `json:"index"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	CorrectCount  int    `json:"correctCount"`
	XP            int    `json:"xp"`
	Coins         int    `json:"coins"`
}

// QuizResult is the summary of a finished session.
type QuizResult struct {
	Category       string `json:"category"`
	Difficulty     string `json:"difficulty"`
	Level          int    `json:"level"`
	Total          int    `json:"total"`
	CorrectCount   int    `json:"correctCount"`
	XP             int    `json:"xp"`
	Coins          int    `json:"coins"`
	Passed         bool   `json:"passed"`
	DailyChallenge bool   `json:"dailyChallenge"`
}

// QuizStep tells the caller what to persist after a transition. Resume is
// set when the session moved on to another question, Result when it finished.
type QuizStep struct {
	Resume *models.ResumeState
	Result *QuizResult
}

// QuestionView is a question without its answer.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// SessionView is a snapshot of a session for display.
type SessionView struct {
	State            QuizState     `json:"state"`
	Category         string        `json:"category"`
	Difficulty       string        `json:"difficulty"`
	Level            int           `json:"level"`
	Index            int           `json:"index"`
	Total            int           `json:"total"`
	Question         *QuestionView `json:"question,omitempty"`
	CorrectCount     int           `json:"correctCount"`
	XP               int           `json:"xp"`
	Coins            int           `json:"coins"`
	LastCorrect      *bool         `json:"lastCorrect,omitempty"`
	TimedOut         bool          `json:"timedOut"`
	SecondsRemaining int           `json:"secondsRemaining"`
	Result           *QuizResult   `json:"result,omitempty"`
}

// QuizSession sequences through a fixed list of questions:
// answering(i) -> submitted(i) -> answering(i+1) | finished.
// It is safe for concurrent use.
type QuizSession struct {
	mu sync.Mutex

	category   string
	difficulty string
	level      int
	questions  []models.Question
	rules      config.GameRules
	daily      bool

	state        QuizState
	index        int
	correctCount int
	xp           int
	coins        int
	lastCorrect  bool
	timedOut     bool
	startedAt    time.Time
	lastActivity time.Time
	result       *QuizResult
}

// NewQuizSession starts a session at the first question.
func NewQuizSession(cfg SessionConfig, now time.Time) (*QuizSession, error) {
	if len(cfg.Questions) == 0 {
		return nil, ErrLevelNotFound
	}
	return &QuizSession{
		category:     cfg.Category,
		difficulty:   cfg.Difficulty,
		level:        cfg.Level,
		questions:    cfg.Questions,
		rules:        cfg.Rules,
		daily:        cfg.DailyChallenge,
		state:        StateAnswering,
		startedAt:    now,
		lastActivity: now,
	}, nil
}

// Restore continues from a resume slot of the same level. It reports false
// and leaves the session untouched when the slot does not fit.
func (q *QuizSession) Restore(slot models.ResumeState, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !slot.Matches(q.category, q.difficulty, q.level) || q.state != StateAnswering {
		return false
	}
	if slot.Index < 0 || slot.Index >= len(q.questions) || slot.CorrectCount > slot.Index {
		return false
	}
	q.index = slot.Index
	q.correctCount = slot.CorrectCount
	q.xp = slot.XP
	q.coins = slot.Coins
	q.startedAt = now
	q.lastActivity = now
	return true
}

// Submit checks an answer for the current question.
func (q *QuizSession) Submit(answer string, now time.Time) (AnswerResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expire(now)
	switch q.state {
	case StateAnswering:
	case StateSubmitted:
		if q.timedOut {
			return AnswerResult{}, ErrQuestionTimedOut
		}
		return AnswerResult{}, ErrInvalidTransition
	default:
		return AnswerResult{}, ErrInvalidTransition
	}

	question := q.questions[q.index]
	correct := strings.TrimSpace(answer) == strings.TrimSpace(question.Answer)
	if correct {
		q.correctCount++
		q.xp += q.rules.XPPerCorrect
		q.coins += q.rules.CoinsPerCorrect
	}
	q.lastCorrect = correct
	q.state = StateSubmitted
	q.lastActivity = now

	return AnswerResult{
		Index:         q.index,
		Correct:       correct,
		CorrectAnswer: question.Answer,
		CorrectCount:  q.correctCount,
		XP:            q.xp,
		Coins:         q.coins,
	}, nil
}

// Next moves on from a submitted question, or skips an unanswered one.
func (q *QuizSession) Next(now time.Time) (QuizStep, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expire(now)
	if q.state == StateFinished {
		return QuizStep{}, ErrInvalidTransition
	}
	return q.advance(now), nil
}

// Skip moves on from a question that has not been answered.
func (q *QuizSession) Skip(now time.Time) (QuizStep, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expire(now)
	if q.state != StateAnswering {
		return QuizStep{}, ErrInvalidTransition
	}
	return q.advance(now), nil
}

func (q *QuizSession) advance(now time.Time) QuizStep {
	q.lastActivity = now
	q.lastCorrect = false
	q.timedOut = false

	if q.index+1 < len(q.questions) {
		q.index++
		q.state = StateAnswering
		q.startedAt = now
		return QuizStep{Resume: &models.ResumeState{
			Category:     q.category,
			Difficulty:   q.difficulty,
			Level:        q.level,
			Index:        q.index,
			CorrectCount: q.correctCount,
			XP:           q.xp,
			Coins:        q.coins,
		}}
	}

	q.state = StateFinished
	passed := levelPassed(q.correctCount, len(q.questions), q.rules.QuizPassPercent)
	if passed {
		q.xp += q.rules.CompletionXP
		q.coins += q.rules.CompletionCoins
	}
	q.result = &QuizResult{
		Category:       q.category,
		Difficulty:     q.difficulty,
		Level:          q.level,
		Total:          len(q.questions),
		CorrectCount:   q.correctCount,
		XP:             q.xp,
		Coins:          q.coins,
		Passed:         passed,
		DailyChallenge: q.daily,
	}
	result := *q.result
	return QuizStep{Result: &result}
}

// Expire applies the question countdown and reports whether the current
// question was force-submitted as incorrect.
func (q *QuizSession) Expire(now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.expire(now)
}

func (q *QuizSession) expire(now time.Time) bool {
	limit := q.rules.QuestionTimeLimit()
	if q.state != StateAnswering || limit <= 0 || now.Sub(q.startedAt) < limit {
		return false
	}
	q.state = StateSubmitted
	q.lastCorrect = false
	q.timedOut = true
	return true
}

// View returns a snapshot of the session at now.
func (q *QuizSession) View(now time.Time) SessionView {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.expire(now)
	view := SessionView{
		State:        q.state,
		Category:     q.category,
		Difficulty:   q.difficulty,
		Level:        q.level,
		Index:        q.index,
		Total:        len(q.questions),
		CorrectCount: q.correctCount,
		XP:           q.xp,
		Coins:        q.coins,
		TimedOut:     q.timedOut,
	}

	switch q.state {
	case StateAnswering:
		question := q.questions[q.index]
		view.Question = &QuestionView{ID: question.ID, Text: question.Text, Options: question.Options}
		if limit := q.rules.QuestionTimeLimit(); limit > 0 {
			remaining := limit - now.Sub(q.startedAt)
			view.SecondsRemaining = int((remaining + time.Second - 1) / time.Second)
		}
	case StateSubmitted:
		question := q.questions[q.index]
		view.Question = &QuestionView{ID: question.ID, Text: question.Text, Options: question.Options}
		correct := q.lastCorrect
		view.LastCorrect = &correct
	case StateFinished:
		result := *q.result
		view.Result = &result
	}
	return view
}

// State returns the current state.
func (q *QuizSession) State() QuizState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// LastActivity returns the time of the last transition.
func (q *QuizSession) LastActivity() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastActivity
}

// levelPassed applies the pass threshold; 100 percent means every question.
func levelPassed(correct, total, passPercent int) bool {
	return total > 0 && correct*100 >= passPercent*total
}
