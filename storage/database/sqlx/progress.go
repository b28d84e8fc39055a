package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo progressRepository) IsCompleted(ctx context.Context, learnerID, chapterID string) (bool, error) {
	var completed bool
	err := repo.db.GetContext(ctx, &completed,
		`SELECT completed FROM progress WHERE learner_id = $1 AND chapter_id = $2`, learnerID, chapterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, errors.Wrap(err, "getting completion")
	}
	return completed, nil
}

func (repo progressRepository) MarkCompleted(ctx context.Context, learnerID, chapterID string) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO progress (learner_id, chapter_id, completed, updated_at)
		VALUES ($1, $2, TRUE, now())
		ON CONFLICT (learner_id, chapter_id) DO UPDATE SET completed = TRUE, updated_at = now()`,
		learnerID, chapterID)
	return errors.Wrap(err, "marking completed")
}

func (repo progressRepository) CompletedChapters(ctx context.Context, learnerID string, chapterIDs []string) (map[string]bool, error) {
	completed := make(map[string]bool, len(chapterIDs))
	if len(chapterIDs) == 0 {
		return completed, nil
	}

	var ids []string
	err := repo.db.SelectContext(ctx, &ids, `
		SELECT chapter_id FROM progress
		WHERE learner_id = $1 AND completed AND chapter_id = ANY($2)`,
		learnerID, pq.Array(chapterIDs))
	if err != nil {
		return nil, errors.Wrap(err, "querying completed chapters")
	}
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

func (repo progressRepository) UpsertQuizScore(ctx context.Context, qs progress.QuizScore) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO quiz_score (learner_id, chapter_id, score, total_marks, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id, chapter_id)
		DO UPDATE SET score = EXCLUDED.score, total_marks = EXCLUDED.total_marks, updated_at = EXCLUDED.updated_at`,
		qs.LearnerID, qs.ChapterID, qs.Score, qs.TotalMarks, qs.UpdatedAt.UTC())
	return errors.Wrap(err, "upserting quiz score")
}

func (repo progressRepository) GetQuizScore(ctx context.Context, learnerID, chapterID string) (progress.QuizScore, error) {
	var qs struct {
		LearnerID  string    `db:"learner_id"`
		ChapterID  string    `db:"chapter_id"`
		Score      int       `db:"score"`
		TotalMarks int       `db:"total_marks"`
		UpdatedAt  time.Time `db:"updated_at"`
	}
	err := repo.db.GetContext(ctx, &qs,
		`SELECT * FROM quiz_score WHERE learner_id = $1 AND chapter_id = $2`, learnerID, chapterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return progress.QuizScore{}, progress.ErrNotFound
		}
		return progress.QuizScore{}, errors.Wrap(err, "getting quiz score")
	}
	return progress.QuizScore(qs), nil
}
