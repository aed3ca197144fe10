package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"quizquest/internal/models"
	"quizquest/internal/repository"
)

// Shuffler produces a permutation of question ids.
type Shuffler interface {
	Shuffle(ids []string) []string
}

// RandomShuffler shuffles with math/rand/v2.
type RandomShuffler struct{}

// Shuffle returns a shuffled copy of ids.
func (RandomShuffler) Shuffle(ids []string) []string {
	out := append([]string(nil), ids...)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// QuestionOrderService gives each user a stable question order per category
// and difficulty, and splits it into levels.
type QuestionOrderService struct {
	orders    *repository.QuestionOrderRepository
	questions *repository.QuestionRepository
	shuffler  Shuffler
	now       func() time.Time
}

// NewQuestionOrderService creates a new question order service
func NewQuestionOrderService(orders *repository.QuestionOrderRepository, questions *repository.QuestionRepository, shuffler Shuffler) *QuestionOrderService {
	if shuffler == nil {
		shuffler = RandomShuffler{}
	}
	return &QuestionOrderService{
		orders:    orders,
		questions: questions,
		shuffler:  shuffler,
		now:       time.Now,
	}
}

// GetOrCreateQuestionOrder returns the user's persisted order, ignoring
// questionIDs once an order exists. Guests get a fresh permutation on every call.
func (s *QuestionOrderService) GetOrCreateQuestionOrder(ctx context.Context, user models.Identity, category, difficulty string, questionIDs []string) ([]string, error) {
	if user.IsGuest() {
		return s.shuffler.Shuffle(questionIDs), nil
	}

	order, err := s.orders.GetOrCreateOrder(ctx, user.UserID, category, difficulty, func() []string {
		return s.shuffler.Shuffle(questionIDs)
	}, s.now())
	if err != nil {
		return nil, fmt.Errorf("question order %s/%s: %w", category, difficulty, err)
	}
	return order.Order, nil
}

// LoadLevel returns the questions of a level in the user's order.
func (s *QuestionOrderService) LoadLevel(ctx context.Context, user models.Identity, category, difficulty string, level, perLevel int) ([]models.Question, error) {
	if level < 1 {
		return nil, ErrInvalidLevel
	}

	questions, err := s.questions.GetQuestions(ctx, category, difficulty)
	if err != nil {
		return nil, fmt.Errorf("load questions %s/%s: %w", category, difficulty, err)
	}
	if len(questions) == 0 {
		return nil, ErrLevelNotFound
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	order, err := s.GetOrCreateQuestionOrder(ctx, user, category, difficulty, ids)
	if err != nil {
		return nil, err
	}

	levelQuestions := LevelQuestions(Materialize(order, questions), level, perLevel)
	if len(levelQuestions) == 0 {
		return nil, ErrLevelNotFound
	}
	return levelQuestions, nil
}

// Materialize orders questions by ids. Ids without a question are dropped,
// questions missing from ids are left out.
func Materialize(ids []string, questions []models.Question) []models.Question {
	byID := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered
}

// LevelQuestions returns the 1-based level-th chunk of perLevel questions.
func LevelQuestions(ordered []models.Question, level, perLevel int) []models.Question {
	if level < 1 || perLevel < 1 {
		return nil
	}
	start := (level - 1) * perLevel
	if start >= len(ordered) {
		return nil
	}
	end := min(start+perLevel, len(ordered))
	return ordered[start:end]
}

// LevelCount returns how many levels total questions make.
func LevelCount(total, perLevel int) int {
	if total <= 0 || perLevel < 1 {
		return 0
	}
	return (total + perLevel - 1) / perLevel
}
