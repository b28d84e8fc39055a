package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/quiz"
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

type questionRow struct {
	ID            string         `db:"id"`
	Subject       string         `db:"subject"`
	Topic         string         `db:"topic"`
	Difficulty    string         `db:"difficulty"`
	Prompt        string         `db:"prompt"`
	Options       pq.StringArray `db:"options"`
	CorrectAnswer string         `db:"correct_answer"`
	IsActive      bool           `db:"is_active"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (repo quizRepository) unrow(row questionRow) quiz.Question {
	return quiz.Question{
		ID:            row.ID,
		Subject:       row.Subject,
		Topic:         row.Topic,
		Difficulty:    quiz.Difficulty(row.Difficulty),
		Prompt:        row.Prompt,
		Options:       row.Options,
		CorrectAnswer: row.CorrectAnswer,
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt,
	}
}

func (repo quizRepository) CreateQuestion(ctx context.Context, q quiz.Question) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO quiz_question (id, subject, topic, difficulty, prompt, options, correct_answer, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		q.ID, q.Subject, q.Topic, string(q.Difficulty), q.Prompt,
		pq.StringArray(q.Options), q.CorrectAnswer, q.IsActive, q.CreatedAt.UTC())
	return errors.Wrap(err, "inserting question")
}

func (repo quizRepository) FindQuestion(ctx context.Context, id string) (quiz.Question, error) {
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM quiz_question WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return quiz.Question{}, quiz.ErrQuestionNotFound
		}
		return quiz.Question{}, errors.Wrap(err, "getting question")
	}
	return repo.unrow(row), nil
}

// exclusion binds an id list for a NOT (id = ANY(..)) predicate. A nil slice
// would bind SQL NULL and the predicate would filter out every row.
func exclusion(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ids)
}

// NextQuestion picks the oldest active unattempted question in the pool so
// every learner walks a subject's pool in the same stable order.
func (repo quizRepository) NextQuestion(ctx context.Context, subject string, d quiz.Difficulty, excludeIDs []string) (quiz.Question, error) {
	var row questionRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT * FROM quiz_question
		WHERE subject = $1 AND difficulty = $2 AND is_active AND NOT (id = ANY($3))
		ORDER BY created_at, id
		LIMIT 1`,
		subject, string(d), exclusion(excludeIDs))
	if err != nil {
		if err == sql.ErrNoRows {
			return quiz.Question{}, quiz.ErrNoQuestions
		}
		return quiz.Question{}, errors.Wrap(err, "picking question")
	}
	return repo.unrow(row), nil
}

func (repo quizRepository) AppendAttempt(ctx context.Context, a quiz.Attempt) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attempt (id, learner_id, question_id, subject, topic, difficulty, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.LearnerID, a.QuestionID, a.Subject, a.Topic, string(a.Difficulty), a.IsCorrect, a.CreatedAt.UTC())
	return errors.Wrap(err, "inserting attempt")
}

func (repo quizRepository) RecentAttempts(ctx context.Context, learnerID, subject string, n int) ([]quiz.Attempt, error) {
	var rows []struct {
		ID         string    `db:"id"`
		LearnerID  string    `db:"learner_id"`
		QuestionID string    `db:"question_id"`
		Subject    string    `db:"subject"`
		Topic      string    `db:"topic"`
		Difficulty string    `db:"difficulty"`
		IsCorrect  bool      `db:"is_correct"`
		CreatedAt  time.Time `db:"created_at"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM attempt
		WHERE learner_id = $1 AND subject = $2
		ORDER BY created_at DESC, id
		LIMIT $3`,
		learnerID, subject, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}

	attempts := make([]quiz.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, quiz.Attempt{
			ID:         row.ID,
			LearnerID:  row.LearnerID,
			QuestionID: row.QuestionID,
			Subject:    row.Subject,
			Topic:      row.Topic,
			Difficulty: quiz.Difficulty(row.Difficulty),
			IsCorrect:  row.IsCorrect,
			CreatedAt:  row.CreatedAt,
		})
	}
	return attempts, nil
}

func (repo quizRepository) AttemptedQuestionIDs(ctx context.Context, learnerID, subject string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT question_id FROM attempt WHERE learner_id = $1 AND subject = $2`,
		learnerID, subject)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempted questions")
	}
	return ids, nil
}
