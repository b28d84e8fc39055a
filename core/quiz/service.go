package quiz

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const recentAttemptWindow = 5

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrNoQuestions      = errors.New("no questions available")
)

// Repository persists questions and the append-only attempt log.
type Repository interface {
	CreateQuestion(ctx context.Context, q Question) error
	FindQuestion(ctx context.Context, id string) (Question, error)
	// NextQuestion returns the first active question in (subject, difficulty)
	// whose ID is not in excludeIDs, in a deterministic order. It returns
	// ErrNoQuestions when the pool at that difficulty is exhausted.
	NextQuestion(ctx context.Context, subject string, d Difficulty, excludeIDs []string) (Question, error)
	AppendAttempt(ctx context.Context, a Attempt) error
	// RecentAttempts returns up to n attempts for (learner, subject), newest first.
	RecentAttempts(ctx context.Context, learnerID, subject string, n int) ([]Attempt, error)
	AttemptedQuestionIDs(ctx context.Context, learnerID, subject string) ([]string, error)
}

// Scorer receives points for correct answers; the leaderboard implements it.
type Scorer interface {
	AddPoints(ctx context.Context, learnerID string, cohort, points int) error
}

// AdaptiveEngine decides the next difficulty from a learner's recent attempts.
type AdaptiveEngine interface {
	Next(ctx context.Context, in AdaptiveInput) (AdaptiveDecision, error)
}

type Service struct {
	repo     Repository
	scorer   Scorer
	adaptive AdaptiveEngine
	logger   core.Logger
}

func NewService(repo Repository, scorer Scorer, adaptive AdaptiveEngine, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		scorer:   scorer,
		adaptive: adaptive,
		logger:   logger,
	}
}

func (svc *Service) AddQuestion(ctx context.Context, q Question) (Question, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	q.Subject = core.CleanString(q.Subject)
	q.Topic = core.CleanString(q.Topic)
	q.Difficulty = ParseDifficulty(string(q.Difficulty))
	q.IsActive = true
	q.CreatedAt = time.Now().UTC()
	if err := svc.repo.CreateQuestion(ctx, q); err != nil {
		return Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

// Start begins a quiz session for a learner in a subject. The opening
// question is always easy and never one the learner has already attempted.
func (svc *Service) Start(ctx context.Context, learnerID, subject string) (Round, error) {
	subject = core.CleanString(subject)
	attempted, err := svc.repo.AttemptedQuestionIDs(ctx, learnerID, subject)
	if err != nil {
		return Round{}, errors.Wrap(err, "loading attempted questions")
	}
	q, err := svc.repo.NextQuestion(ctx, subject, Easy, attempted)
	if err != nil {
		if errors.Cause(err) == ErrNoQuestions {
			return Round{Completed: true}, nil
		}
		return Round{}, errors.Wrap(err, "picking opening question")
	}
	return Round{Question: &q}, nil
}

// SubmitAnswer grades one answer, logs the attempt, awards points when
// correct and serves the next question at the adaptive difficulty. The
// adaptive engine is advisory: any failure falls back to easy.
func (svc *Service) SubmitAnswer(ctx context.Context, learnerID string, cohort int, questionID, answer string) (AnswerResult, error) {
	q, err := svc.repo.FindQuestion(ctx, questionID)
	if err != nil {
		return AnswerResult{}, err
	}

	correct := strings.TrimSpace(answer) == q.CorrectAnswer
	attempt := Attempt{
		ID:         uuid.New().String(),
		LearnerID:  learnerID,
		QuestionID: q.ID,
		Subject:    q.Subject,
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		IsCorrect:  correct,
		CreatedAt:  time.Now().UTC(),
	}
	if err = svc.repo.AppendAttempt(ctx, attempt); err != nil {
		return AnswerResult{}, errors.Wrap(err, "logging attempt")
	}

	res := AnswerResult{Correct: correct}
	if correct {
		res.Points = q.Difficulty.Points()
		if err = svc.scorer.AddPoints(ctx, learnerID, cohort, res.Points); err != nil {
			return AnswerResult{}, errors.Wrap(err, "awarding points")
		}
	}

	res.Adaptive = svc.nextDifficulty(ctx, learnerID, q.Subject)

	attempted, err := svc.repo.AttemptedQuestionIDs(ctx, learnerID, q.Subject)
	if err != nil {
		return AnswerResult{}, errors.Wrap(err, "loading attempted questions")
	}
	next, err := svc.repo.NextQuestion(ctx, q.Subject, ParseDifficulty(res.Adaptive.NextDifficulty), attempted)
	if err != nil {
		if errors.Cause(err) == ErrNoQuestions {
			res.Completed = true
			return res, nil
		}
		return AnswerResult{}, errors.Wrap(err, "picking next question")
	}
	res.Question = &next
	return res, nil
}

// RecentAttempts exposes a learner's latest attempts in a subject, newest first.
func (svc *Service) RecentAttempts(ctx context.Context, learnerID, subject string, n int) ([]Attempt, error) {
	if n <= 0 {
		n = recentAttemptWindow
	}
	return svc.repo.RecentAttempts(ctx, learnerID, core.CleanString(subject), n)
}

func (svc *Service) nextDifficulty(ctx context.Context, learnerID, subject string) AdaptiveDecision {
	recent, err := svc.repo.RecentAttempts(ctx, learnerID, subject, recentAttemptWindow)
	if err != nil {
		svc.logger.Warn("loading recent attempts failed, serving easy", "error", err)
		return FallbackDecision()
	}

	in := AdaptiveInput{
		ChildID:  learnerID,
		Subject:  subject,
		Attempts: make([]AttemptSummary, 0, len(recent)),
	}
	// repo returns newest first; the engine wants chronological order.
	for i := len(recent) - 1; i >= 0; i-- {
		a := recent[i]
		in.Attempts = append(in.Attempts, AttemptSummary{
			Topic:      a.Topic,
			Difficulty: a.Difficulty,
			IsCorrect:  a.IsCorrect,
		})
	}

	decision, err := svc.adaptive.Next(ctx, in)
	if err != nil {
		svc.logger.Warn("adaptive engine unavailable, serving easy", "error", err)
		return FallbackDecision()
	}
	return decision
}
