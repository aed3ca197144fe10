package repository

import (
	"context"
	"fmt"

	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// StoryRepository handles story definitions and per-user story progress
type StoryRepository struct {
	store docstore.Store
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(store docstore.Store) *StoryRepository {
	return &StoryRepository{store: store}
}

// GetStory returns a story definition, or nil if it does not exist
func (r *StoryRepository) GetStory(ctx context.Context, storyID string) (*models.StoryDefinition, error) {
	doc, err := r.store.Get(ctx, storyPath(storyID))
	if docstore.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	story, err := models.ParseStoryDefinition(storyID, doc.Data)
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// SaveStory creates or replaces a story definition
func (r *StoryRepository) SaveStory(ctx context.Context, story models.StoryDefinition) error {
	return r.store.Set(ctx, storyPath(story.ID), story.ToDocument())
}

// GetProgress returns the user's progress in a story; an empty record if none exists
func (r *StoryRepository) GetProgress(ctx context.Context, userID, storyID string) (models.StoryProgress, error) {
	doc, err := r.store.Get(ctx, storyProgressPath(userID, storyID))
	if docstore.IsNotFound(err) {
		return models.StoryProgress{StoryID: storyID}, nil
	}
	if err != nil {
		return models.StoryProgress{}, err
	}
	return models.ParseStoryProgress(storyID, doc.Data)
}

// UpdateChapter reads the chapter's attempt record, lets update decide the
// next one and writes it back, all in one transaction. An error from update
// aborts without writing.
func (r *StoryRepository) UpdateChapter(ctx context.Context, userID, storyID, chapterID string, update func(current models.ChapterAttempt) (models.ChapterAttempt, error)) (models.ChapterAttempt, error) {
	path := storyProgressPath(userID, storyID)
	var result models.ChapterAttempt

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Txn) error {
		progress := models.StoryProgress{StoryID: storyID}
		doc, err := tx.Get(ctx, path)
		switch {
		case docstore.IsNotFound(err):
		case err != nil:
			return err
		default:
			progress, err = models.ParseStoryProgress(storyID, doc.Data)
			if err != nil {
				return fmt.Errorf("story progress %s: %w", path, err)
			}
		}

		next, err := update(progress.Chapter(chapterID))
		if err != nil {
			return err
		}
		next.ChapterID = chapterID
		progress.Put(next)
		progress.UpdatedAt = next.LastAttemptTime
		result = next
		return tx.Set(ctx, path, progress.ToDocument())
	})
	if err != nil {
		return models.ChapterAttempt{}, err
	}
	return result, nil
}
