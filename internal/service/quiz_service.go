package service

import (
	"context"
	"time"

	"quizquest/internal/logger"
	"quizquest/internal/models"
)

// PointsRecorder accepts leaderboard point increments.
type PointsRecorder interface {
	AddPoints(userID string, points int64, category string)
}

// ChallengeCompleter serves and completes today's daily challenge.
type ChallengeCompleter interface {
	Today(ctx context.Context) (*models.DailyChallenge, error)
	Complete(ctx context.Context, user models.Identity) (*ChallengeCompletion, error)
}

// StartOptions controls how a quiz session starts.
type StartOptions struct {
	// Resume continues from the user's resume slot when it matches the level.
	Resume bool
	// DailyChallenge marks the session as today's daily challenge.
	DailyChallenge bool
}

// QuizService runs quiz sessions and applies their side effects: resume
// slots, level progress, leaderboard points and daily challenge streaks.
type QuizService struct {
	progress   *ProgressService
	resume     *ResumeService
	orders     *QuestionOrderService
	settings   *SettingsService
	points     PointsRecorder
	challenges ChallengeCompleter
	sessions   *SessionManager
	log        *logger.Logger
	now        func() time.Time
}

// NewQuizService creates a new quiz service. points and challenges may be nil.
func NewQuizService(
	progress *ProgressService,
	resume *ResumeService,
	orders *QuestionOrderService,
	settings *SettingsService,
	points PointsRecorder,
	challenges ChallengeCompleter,
	sessions *SessionManager,
	log *logger.Logger,
) *QuizService {
	return &QuizService{
		progress:   progress,
		resume:     resume,
		orders:     orders,
		settings:   settings,
		points:     points,
		challenges: challenges,
		sessions:   sessions,
		log:        log,
		now:        time.Now,
	}
}

// Start begins a session for a level, replacing the identity's previous
// session. A level beyond highest completed + 1 returns ErrLevelLocked. A
// daily challenge session must be on the level of today's challenge.
func (s *QuizService) Start(ctx context.Context, user models.Identity, category, difficulty string, level int, opts StartOptions) (SessionView, error) {
	if _, err := s.progress.CheckLevelAccess(ctx, user, category, difficulty, level); err != nil {
		return SessionView{}, err
	}
	if opts.DailyChallenge {
		if err := s.checkChallenge(ctx, category, difficulty); err != nil {
			return SessionView{}, err
		}
	}

	rules := s.settings.GameRules(ctx)
	questions, err := s.orders.LoadLevel(ctx, user, category, difficulty, level, rules.QuestionsPerLevel)
	if err != nil {
		return SessionView{}, err
	}

	now := s.now()
	session, err := NewQuizSession(SessionConfig{
		Category:       category,
		Difficulty:     difficulty,
		Level:          level,
		Questions:      questions,
		Rules:          rules,
		DailyChallenge: opts.DailyChallenge,
	}, now)
	if err != nil {
		return SessionView{}, err
	}

	if opts.Resume {
		slot, err := s.resume.LoadResumeState(ctx, user)
		if err != nil {
			s.log.Warn("Failed to load resume state", "identity", user.Key(), "error", err)
		} else if slot != nil && session.Restore(*slot, now) {
			s.log.Debug("Resumed quiz session", "identity", user.Key(), "index", slot.Index)
		}
	}

	s.sessions.Put(user.Key(), session, now)
	s.log.Info("Quiz session started",
		"identity", user.Key(), "category", category, "difficulty", difficulty, "level", level)
	return session.View(now), nil
}

func (s *QuizService) checkChallenge(ctx context.Context, category, difficulty string) error {
	if s.challenges == nil {
		return ErrNoActiveChallenge
	}
	challenge, err := s.challenges.Today(ctx)
	if err != nil {
		return err
	}
	if challenge == nil {
		return ErrNoActiveChallenge
	}
	if !challenge.Matches(category, difficulty) {
		return ErrChallengeMismatch
	}
	return nil
}

// Current returns the identity's live session.
func (s *QuizService) Current(user models.Identity) (SessionView, error) {
	session, ok := s.sessions.Get(user.Key())
	if !ok {
		return SessionView{}, ErrNoSession
	}
	return session.View(s.now()), nil
}

// Answer submits an answer for the current question.
func (s *QuizService) Answer(ctx context.Context, user models.Identity, answer string) (AnswerResult, SessionView, error) {
	session, ok := s.sessions.Get(user.Key())
	if !ok {
		return AnswerResult{}, SessionView{}, ErrNoSession
	}
	now := s.now()
	result, err := session.Submit(answer, now)
	if err != nil {
		return AnswerResult{}, session.View(now), err
	}
	return result, session.View(now), nil
}

// Next moves to the next question or finishes the level.
func (s *QuizService) Next(ctx context.Context, user models.Identity) (SessionView, error) {
	return s.step(ctx, user, (*QuizSession).Next)
}

// Skip leaves the current question unanswered and moves on.
func (s *QuizService) Skip(ctx context.Context, user models.Identity) (SessionView, error) {
	return s.step(ctx, user, (*QuizSession).Skip)
}

func (s *QuizService) step(ctx context.Context, user models.Identity, transition func(*QuizSession, time.Time) (QuizStep, error)) (SessionView, error) {
	session, ok := s.sessions.Get(user.Key())
	if !ok {
		return SessionView{}, ErrNoSession
	}
	now := s.now()
	step, err := transition(session, now)
	if err != nil {
		return session.View(now), err
	}
	s.apply(ctx, user, step)
	return session.View(now), nil
}

// Discard drops the live session and clears the resume slot ("start over").
func (s *QuizService) Discard(ctx context.Context, user models.Identity) error {
	s.sessions.Delete(user.Key())
	return s.resume.ClearResumeState(ctx, user)
}

// apply persists the effects of a transition. Failures are logged and do
// not undo the transition.
func (s *QuizService) apply(ctx context.Context, user models.Identity, step QuizStep) {
	if step.Resume != nil {
		_ = s.resume.SaveResumeState(ctx, user, *step.Resume)
	}

	result := step.Result
	if result == nil {
		return
	}
	_ = s.resume.ClearResumeState(ctx, user)

	log := s.log.With("identity", user.Key(), "category", result.Category,
		"difficulty", result.Difficulty, "level", result.Level)
	if !result.Passed {
		log.Info("Level finished without passing", "correct", result.CorrectCount, "total", result.Total)
		return
	}

	if err := s.progress.MarkLevelCompleted(ctx, user, result.Category, result.Difficulty, result.Level); err != nil {
		log.Warn("Level passed but progress was not saved", "error", err)
	}
	if s.points != nil && !user.IsGuest() && result.XP > 0 {
		s.points.AddPoints(user.UserID, int64(result.XP), result.Category)
	}
	if result.DailyChallenge && s.challenges != nil {
		if _, err := s.challenges.Complete(ctx, user); err != nil {
			log.Warn("Failed to record daily challenge completion", "error", err)
		}
	}
	log.Info("Level passed", "xp", result.XP, "coins", result.Coins)
}
