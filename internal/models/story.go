package models

import (
	"fmt"
	"time"
)

// ChapterAttempt is a user's attempt history for one story chapter.
type ChapterAttempt struct {
	ChapterID        string    `json:"chapterId"`
	Retries          int       `json:"retries"`
	PracticeAttempts int       `json:"practiceAttempts"`
	LastAttemptTime  time.Time `json:"lastAttemptTime"`
	Passed           bool      `json:"passed"`
	Score            int       `json:"score"`
}

// Fresh reports whether no graded attempt has been made yet.
func (c ChapterAttempt) Fresh() bool {
	return c.LastAttemptTime.IsZero() && !c.Passed
}

func (c ChapterAttempt) toMap() map[string]interface{} {
	return map[string]interface{}{
		"chapterId":        c.ChapterID,
		"retries":          c.Retries,
		"practiceAttempts": c.PracticeAttempts,
		"lastAttemptTime":  formatTime(c.LastAttemptTime),
		"passed":           c.Passed,
		"score":            c.Score,
	}
}

// StoryProgress holds every chapter attempt of a user within one story.
type StoryProgress struct {
	StoryID   string           `json:"storyId"`
	Chapters  []ChapterAttempt `json:"chapters"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Chapter returns the attempt record for chapterID, or a fresh one.
func (p StoryProgress) Chapter(chapterID string) ChapterAttempt {
	for _, c := range p.Chapters {
		if c.ChapterID == chapterID {
			return c
		}
	}
	return ChapterAttempt{ChapterID: chapterID}
}

// Put replaces or appends the attempt record for its chapter.
func (p *StoryProgress) Put(attempt ChapterAttempt) {
	for i, c := range p.Chapters {
		if c.ChapterID == attempt.ChapterID {
			p.Chapters[i] = attempt
			return
		}
	}
	p.Chapters = append(p.Chapters, attempt)
}

func (p StoryProgress) ToDocument() map[string]interface{} {
	chapters := make([]interface{}, 0, len(p.Chapters))
	for _, c := range p.Chapters {
		chapters = append(chapters, c.toMap())
	}
	return map[string]interface{}{
		"chapters":  chapters,
		"updatedAt": formatTime(p.UpdatedAt),
	}
}

func ParseStoryProgress(storyID string, data map[string]interface{}) (StoryProgress, error) {
	p := StoryProgress{StoryID: storyID}
	items, err := objectList(data, "chapters")
	if err != nil {
		return StoryProgress{}, err
	}
	for _, item := range items {
		r := fieldReader{data: item}
		c := ChapterAttempt{
			ChapterID:        r.str("chapterId"),
			Retries:          r.integer("retries"),
			PracticeAttempts: r.integer("practiceAttempts"),
			LastAttemptTime:  r.timestamp("lastAttemptTime"),
			Passed:           r.boolean("passed"),
			Score:            r.integer("score"),
		}
		if r.err != nil {
			return StoryProgress{}, r.err
		}
		if c.ChapterID == "" {
			return StoryProgress{}, fmt.Errorf("%w: chapter entry without chapterId", ErrMalformedDocument)
		}
		p.Chapters = append(p.Chapters, c)
	}

	r := fieldReader{data: data}
	p.UpdatedAt = r.timestamp("updatedAt")
	return p, r.err
}

// ChapterDefinition declares a chapter and the retry policy it uses.
type ChapterDefinition struct {
	ID          string `json:"id"`
	RetryPolicy string `json:"retryPolicy"`
}

// StoryDefinition is the authored content of a story.
type StoryDefinition struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Chapters []ChapterDefinition `json:"chapters"`
}

// Chapter returns the chapter definition and whether it exists.
func (s StoryDefinition) Chapter(chapterID string) (ChapterDefinition, bool) {
	for _, c := range s.Chapters {
		if c.ID == chapterID {
			return c, true
		}
	}
	return ChapterDefinition{}, false
}

func (s StoryDefinition) ToDocument() map[string]interface{} {
	chapters := make([]interface{}, 0, len(s.Chapters))
	for _, c := range s.Chapters {
		chapters = append(chapters, map[string]interface{}{"id": c.ID, "retryPolicy": c.RetryPolicy})
	}
	return map[string]interface{}{"title": s.Title, "chapters": chapters}
}

func ParseStoryDefinition(id string, data map[string]interface{}) (StoryDefinition, error) {
	r := fieldReader{data: data}
	s := StoryDefinition{ID: id, Title: r.str("title")}
	if r.err != nil {
		return StoryDefinition{}, r.err
	}
	items, err := objectList(data, "chapters")
	if err != nil {
		return StoryDefinition{}, err
	}
	for _, item := range items {
		cr := fieldReader{data: item}
		c := ChapterDefinition{ID: cr.str("id"), RetryPolicy: cr.str("retryPolicy")}
		if cr.err != nil {
			return StoryDefinition{}, cr.err
		}
		s.Chapters = append(s.Chapters, c)
	}
	return s, nil
}

func objectList(data map[string]interface{}, field string) ([]map[string]interface{}, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, malformed(field, v)
	}
	out := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, malformed(field, item)
		}
		out = append(out, m)
	}
	return out, nil
}
