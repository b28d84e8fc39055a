package inmemdb

import (
	"context"

	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) CreateQuestion(_ context.Context, q quiz.Question) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.questions[q.ID] = &q
	repo.db.questionSeq = append(repo.db.questionSeq, q.ID)
	return nil
}

func (repo *quizRepository) FindQuestion(_ context.Context, id string) (quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return *q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

// NextQuestion walks the pool in insertion order so every learner sees the
// same stable sequence.
func (repo *quizRepository) NextQuestion(_ context.Context, subject string, d quiz.Difficulty, excludeIDs []string) (quiz.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	for _, id := range repo.db.questionSeq {
		q, ok := repo.db.questions[id]
		if !ok || excluded[id] {
			continue
		}
		if q.Subject == subject && q.Difficulty == d && q.IsActive {
			return *q, nil
		}
	}
	return quiz.Question{}, quiz.ErrNoQuestions
}

func (repo *quizRepository) AppendAttempt(_ context.Context, a quiz.Attempt) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.attempts = append(repo.db.attempts, a)
	return nil
}

func (repo *quizRepository) RecentAttempts(_ context.Context, learnerID, subject string, n int) ([]quiz.Attempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var attempts []quiz.Attempt
	for i := len(repo.db.attempts) - 1; i >= 0 && len(attempts) < n; i-- {
		a := repo.db.attempts[i]
		if a.LearnerID == learnerID && a.Subject == subject {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

func (repo *quizRepository) AttemptedQuestionIDs(_ context.Context, learnerID, subject string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, a := range repo.db.attempts {
		if a.LearnerID == learnerID && a.Subject == subject && !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}
	return ids, nil
}
