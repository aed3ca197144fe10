package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var errEmptyBody = errors.New("empty request body")

// segmentRules validates values that become one document path segment.
const segmentRules = "required,max=128,excludesall=/"

// pathSegments returns the named path values. A %2F in the URL decodes to
// "/", which would nest the document, so such values are rejected.
func pathSegments(r *http.Request, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		v := r.PathValue(name)
		if err := validate.Var(v, segmentRules); err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// StartQuizRequest starts or resumes a level.
type StartQuizRequest struct {
	Category       string `json:"category" validate:"required,max=64,excludesall=/"`
	Difficulty     string `json:"difficulty" validate:"required,max=32,excludesall=/"`
	Level          int    `json:"level" validate:"min=1"`
	Resume         bool   `json:"resume"`
	DailyChallenge bool   `json:"dailyChallenge"`
}

type AnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// ChapterAttemptRequest records a chapter attempt.
type ChapterAttemptRequest struct {
	Score    *int `json:"score" validate:"required,min=0,max=100"`
	Practice bool `json:"practice"`
}

// QuestionRequest adds or replaces a question.
type QuestionRequest struct {
	ID         string   `json:"id" validate:"required,max=128,excludesall=/"`
	Category   string   `json:"category" validate:"required,max=64,excludesall=/"`
	Difficulty string   `json:"difficulty" validate:"required,max=32,excludesall=/"`
	Text       string   `json:"text" validate:"required"`
	Options    []string `json:"options" validate:"omitempty,dive,required"`
	Answer     string   `json:"answer" validate:"required"`
}

type ChapterRequest struct {
	ID          string `json:"id" validate:"required,max=128,excludesall=/"`
	RetryPolicy string `json:"retryPolicy" validate:"omitempty,oneof=unlimited limited once progressive"`
}

// StoryRequest defines a story and the retry policy of each chapter.
type StoryRequest struct {
	Title    string           `json:"title" validate:"required"`
	Chapters []ChapterRequest `json:"chapters" validate:"required,min=1,dive"`
}

// DailyChallengeRequest defines the challenge of one day.
type DailyChallengeRequest struct {
	Type         string `json:"type" validate:"required"`
	Difficulty   string `json:"difficulty"`
	XP           int    `json:"xp" validate:"min=0"`
	Coins        int    `json:"coins" validate:"min=0"`
	CategoryName string `json:"categoryName"`
	TopicName    string `json:"topicName"`
	Active       bool   `json:"active"`
}

// decodeRequest reads a JSON body into the struct dst and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := decodeBody(w, r, dst, true); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}
