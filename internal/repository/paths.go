package repository

import (
	"quizquest/internal/docstore"
	"quizquest/internal/models"
)

// Collection and document names in the store.
const (
	usersCollection       = "users"
	progressCollection    = "progress"
	resumeCollection      = "resume"
	resumeSlot            = "current"
	ordersCollection      = "questionOrders"
	storyProgressColl     = "storyProgress"
	streaksCollection     = "streaks"
	challengesCollection  = "dailyChallenges"
	storiesCollection     = "stories"
	questionsCollection   = "questions"
	leaderboardCollection = "leaderboard"
	leaderboardUsers      = "users"
	configCollection      = "config"
	gameRulesDocument     = "game"
)

func progressPath(userID, category, difficulty string) string {
	return docstore.Join(usersCollection, userID, progressCollection, models.ProgressKey(category, difficulty))
}

func resumePath(userID string) string {
	return docstore.Join(usersCollection, userID, resumeCollection, resumeSlot)
}

func questionOrderPath(userID, category, difficulty string) string {
	return docstore.Join(usersCollection, userID, ordersCollection, models.ProgressKey(category, difficulty))
}

func storyProgressPath(userID, storyID string) string {
	return docstore.Join(usersCollection, userID, storyProgressColl, storyID)
}

func streakPath(userID string) string {
	return docstore.Join(streaksCollection, userID)
}

func challengePath(date string) string {
	return docstore.Join(challengesCollection, date)
}

func storyPath(storyID string) string {
	return docstore.Join(storiesCollection, storyID)
}

func questionPath(questionID string) string {
	return docstore.Join(questionsCollection, questionID)
}

func leaderboardPath(category, userID string) string {
	return docstore.Join(leaderboardCollection, category, leaderboardUsers, userID)
}

func gameRulesPath() string {
	return docstore.Join(configCollection, gameRulesDocument)
}

// lastSegment returns the document id of a path.
func lastSegment(path string) string {
	collection := docstore.CollectionOf(path)
	if collection == "" {
		return path
	}
	return path[len(collection)+1:]
}
