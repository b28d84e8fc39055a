// Package progress tracks per-learner chapter completion and quiz scores.
package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("no score recorded")

type (
	// QuizScore is the last recorded quiz result for a (learner, chapter)
	// pair. Overwritten on every new attempt; no history is kept.
	QuizScore struct {
		LearnerID  string    `json:"learner_id"`
		ChapterID  string    `json:"chapter_id"`
		Score      int       `json:"score"`
		TotalMarks int       `json:"total_marks"`
		UpdatedAt  time.Time `json:"-"`
	}

	Repository interface {
		IsCompleted(ctx context.Context, learnerID, chapterID string) (bool, error)
		// MarkCompleted upserts the completion flag; retry-safe.
		MarkCompleted(ctx context.Context, learnerID, chapterID string) error
		// CompletedChapters returns the set of completed chapter ids among those given.
		CompletedChapters(ctx context.Context, learnerID string, chapterIDs []string) (map[string]bool, error)
		// UpsertQuizScore overwrites any prior score for the pair.
		UpsertQuizScore(ctx context.Context, qs QuizScore) error
		GetQuizScore(ctx context.Context, learnerID, chapterID string) (QuizScore, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) IsCompleted(ctx context.Context, learnerID, chapterID string) (bool, error) {
	return svc.repo.IsCompleted(ctx, learnerID, chapterID)
}

func (svc *Service) MarkCompleted(ctx context.Context, learnerID, chapterID string) error {
	return svc.repo.MarkCompleted(ctx, learnerID, chapterID)
}

func (svc *Service) CompletedSet(ctx context.Context, learnerID string, chapterIDs []string) (map[string]bool, error) {
	return svc.repo.CompletedChapters(ctx, learnerID, chapterIDs)
}

// RecordQuizScore upserts the score for the pair, last write wins.
func (svc *Service) RecordQuizScore(ctx context.Context, learnerID, chapterID string, correct, total int) error {
	if correct < 0 || total < 0 || correct > total {
		return errors.Errorf("invalid score %d/%d", correct, total)
	}
	return svc.repo.UpsertQuizScore(ctx, QuizScore{
		LearnerID:  learnerID,
		ChapterID:  chapterID,
		Score:      correct,
		TotalMarks: total,
		UpdatedAt:  time.Now().UTC(),
	})
}

func (svc *Service) ChapterScore(ctx context.Context, learnerID, chapterID string) (QuizScore, error) {
	return svc.repo.GetQuizScore(ctx, learnerID, chapterID)
}
