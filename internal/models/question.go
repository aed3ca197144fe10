package models

import (
	"fmt"
	"time"
)

// Question is a single multiple-choice quiz question.
type Question struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Answer     string   `json:"-"`
}

func (q Question) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"category":   q.Category,
		"difficulty": q.Difficulty,
		"text":       q.Text,
		"options":    q.Options,
		"answer":     q.Answer,
	}
}

// ParseQuestion decodes a question document; id is the last path segment.
func ParseQuestion(id string, data map[string]interface{}) (Question, error) {
	r := fieldReader{data: data}
	q := Question{
		ID:         id,
		Category:   r.str("category"),
		Difficulty: r.str("difficulty"),
		Text:       r.str("text"),
		Options:    r.stringList("options"),
		Answer:     r.str("answer"),
	}
	if r.err != nil {
		return Question{}, r.err
	}
	if q.Answer == "" {
		return Question{}, fmt.Errorf("%w: question %s has no answer", ErrMalformedDocument, id)
	}
	return q, nil
}

// QuestionOrder is the persisted question sequence of a user for a
// category and difficulty. It never changes after creation.
type QuestionOrder struct {
	Order     []string  `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func (o QuestionOrder) ToDocument() map[string]interface{} {
	return map[string]interface{}{
		"order":     o.Order,
		"createdAt": formatTime(o.CreatedAt),
	}
}

func ParseQuestionOrder(data map[string]interface{}) (QuestionOrder, error) {
	r := fieldReader{data: data}
	o := QuestionOrder{
		Order:     r.stringList("order"),
		CreatedAt: r.timestamp("createdAt"),
	}
	if r.err != nil {
		return QuestionOrder{}, r.err
	}
	return o, nil
}
