package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) IsCompleted(_ context.Context, learnerID, chapterID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.completions[key(learnerID, chapterID)], nil
}

func (repo *progressRepository) MarkCompleted(_ context.Context, learnerID, chapterID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.completions[key(learnerID, chapterID)] = true
	return nil
}

func (repo *progressRepository) CompletedChapters(_ context.Context, learnerID string, chapterIDs []string) (map[string]bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	completed := make(map[string]bool, len(chapterIDs))
	for _, chapterID := range chapterIDs {
		if repo.db.completions[key(learnerID, chapterID)] {
			completed[chapterID] = true
		}
	}
	return completed, nil
}

func (repo *progressRepository) UpsertQuizScore(_ context.Context, qs progress.QuizScore) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.quizScores[key(qs.LearnerID, qs.ChapterID)] = &qs
	return nil
}

func (repo *progressRepository) GetQuizScore(_ context.Context, learnerID, chapterID string) (progress.QuizScore, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if qs, ok := repo.db.quizScores[key(learnerID, chapterID)]; ok {
		return *qs, nil
	}
	return progress.QuizScore{}, progress.ErrNotFound
}
