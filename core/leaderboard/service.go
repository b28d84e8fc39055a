package leaderboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

const DefaultTopSize = 5

var (
	ErrNotRanked      = errors.New("learner not ranked")
	ErrNegativePoints = errors.New("points must be positive")
)

// Entry is one learner's accumulated score within a cohort. Seq records
// insertion order and breaks score ties, earliest entry first.
type Entry struct {
	Seq        int64     `json:"-"`
	LearnerID  string    `json:"learner_id"`
	Cohort     int       `json:"classno"`
	TotalScore int       `json:"total_score"`
	CreatedAt  time.Time `json:"-"`
}

// Rank is a learner's standing in their cohort. Ranks of equal scores are
// equal, so the sequence may skip numbers.
type Rank struct {
	Rank  int `json:"rank"`
	Score int `json:"total_score"`
}

// Repository persists cohort scores.
type Repository interface {
	// AddPoints atomically creates or increments a learner's cohort entry.
	AddPoints(ctx context.Context, learnerID string, cohort, points int) error
	// Top returns up to n entries for a cohort, highest score first,
	// ties ordered by insertion.
	Top(ctx context.Context, cohort, n int) ([]Entry, error)
	// Get returns a learner's entry or ErrNotRanked.
	Get(ctx context.Context, learnerID string, cohort int) (Entry, error)
	// CountAbove returns how many cohort entries score strictly above score.
	CountAbove(ctx context.Context, cohort, score int) (int, error)
}

// Cache is an optional read-through cache for the top-N listing. A failing
// cache only costs the shortcut, never the request.
type Cache interface {
	GetTop(ctx context.Context, cohort, n int) ([]Entry, bool)
	SetTop(ctx context.Context, cohort, n int, entries []Entry)
	Invalidate(ctx context.Context, cohort int)
}

type Service struct {
	repo   Repository
	cache  Cache // nil disables caching
	logger core.Logger
}

func NewService(repo Repository, cache Cache, logger core.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// AddPoints credits a learner's cohort score, creating the entry on first
// award. Zero or negative amounts are rejected.
func (svc *Service) AddPoints(ctx context.Context, learnerID string, cohort, points int) error {
	if points <= 0 {
		return ErrNegativePoints
	}
	if err := svc.repo.AddPoints(ctx, learnerID, cohort, points); err != nil {
		return errors.Wrap(err, "adding points")
	}
	if svc.cache != nil {
		svc.cache.Invalidate(ctx, cohort)
	}
	return nil
}

// Top returns the cohort's best n scorers; n defaults to 5.
func (svc *Service) Top(ctx context.Context, cohort, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopSize
	}
	if svc.cache != nil {
		if entries, ok := svc.cache.GetTop(ctx, cohort, n); ok {
			return entries, nil
		}
	}
	entries, err := svc.repo.Top(ctx, cohort, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying top scores")
	}
	if svc.cache != nil {
		svc.cache.SetTop(ctx, cohort, n, entries)
	}
	return entries, nil
}

// RankOf computes a learner's dense standing: one more than the number of
// cohort entries scoring strictly higher. Returns ErrNotRanked for learners
// with no entry yet.
func (svc *Service) RankOf(ctx context.Context, learnerID string, cohort int) (Rank, error) {
	entry, err := svc.repo.Get(ctx, learnerID, cohort)
	if err != nil {
		return Rank{}, err
	}
	above, err := svc.repo.CountAbove(ctx, cohort, entry.TotalScore)
	if err != nil {
		return Rank{}, errors.Wrap(err, "counting higher scores")
	}
	return Rank{Rank: above + 1, Score: entry.TotalScore}, nil
}
