package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// QuestionRepository handles the shared question bank
type QuestionRepository struct {
	store docstore.Store
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(store docstore.Store) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// GetQuestions returns every question of a category and difficulty, ordered by id
func (r *QuestionRepository) GetQuestions(ctx context.Context, category, difficulty string) ([]models.Question, error) {
	docs, err := r.store.Query(ctx, questionsCollection, "category", category)
	if err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(docs))
	for _, doc := range docs {
		q, err := models.ParseQuestion(lastSegment(doc.Path), doc.Data)
		if err != nil {
			return nil, err
		}
		if q.Difficulty == difficulty {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// SaveQuestion creates or replaces a question
func (r *QuestionRepository) SaveQuestion(ctx context.Context, q models.Question) error {
	if q.ID == "" {
		return errors.New("question id is required")
	}
	return r.store.Set(ctx, questionPath(q.ID), q.ToDocument())
}

// QuestionOrderRepository handles the persisted per-user question orders
type QuestionOrderRepository struct {
	store docstore.Store
}

// NewQuestionOrderRepository creates a new question order repository
func NewQuestionOrderRepository(store docstore.Store) *QuestionOrderRepository {
	return &QuestionOrderRepository{store: store}
}

// GetOrCreateOrder returns the stored order verbatim. If there is none,
// newOrder is called and its result persisted, all in one transaction, so
// two concurrent first requests agree on a single order.
func (r *QuestionOrderRepository) GetOrCreateOrder(ctx context.Context, userID, category, difficulty string, newOrder func() []string, now time.Time) (models.QuestionOrder, error) {
	path := questionOrderPath(userID, category, difficulty)
	var order models.QuestionOrder

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		doc, err := tx.Get(ctx, path)
		if err == nil {
			order, err = models.ParseQuestionOrder(doc.Data)
			if err != nil {
				return fmt.Errorf("question order %s: %w", path, err)
			}
			return nil
		}
		if !docstore.IsNotFound(err) {
			return err
		}

		order = models.QuestionOrder{Order: newOrder(), CreatedAt: now}
		return tx.Set(ctx, path, order.ToDocument())
	})
	if err != nil {
		return models.QuestionOrder{}, err
	}
	return order, nil
}
