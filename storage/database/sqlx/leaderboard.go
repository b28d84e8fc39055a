package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/leaderboard"
)

type leaderboardRepository struct {
	db *sqlx.DB
}

var _ leaderboard.Repository = (*leaderboardRepository)(nil) // interface compliance check

func NewLeaderboardRepository(db *sqlx.DB) *leaderboardRepository {
	return &leaderboardRepository{db: db}
}

type leaderboardRow struct {
	Seq        int64     `db:"seq"`
	LearnerID  string    `db:"learner_id"`
	Cohort     int       `db:"cohort"`
	TotalScore int       `db:"total_score"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (repo leaderboardRepository) unrow(row leaderboardRow) leaderboard.Entry {
	return leaderboard.Entry{
		Seq:        row.Seq,
		LearnerID:  row.LearnerID,
		Cohort:     row.Cohort,
		TotalScore: row.TotalScore,
		CreatedAt:  row.CreatedAt,
	}
}

// AddPoints upserts in one statement so concurrent awards never lose an
// increment.
func (repo leaderboardRepository) AddPoints(ctx context.Context, learnerID string, cohort, points int) error {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO leaderboard (learner_id, cohort, total_score, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (learner_id, cohort)
		DO UPDATE SET total_score = leaderboard.total_score + EXCLUDED.total_score, updated_at = now()`,
		learnerID, cohort, points)
	return errors.Wrap(err, "adding points")
}

func (repo leaderboardRepository) Top(ctx context.Context, cohort, n int) ([]leaderboard.Entry, error) {
	var rows []leaderboardRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM leaderboard
		WHERE cohort = $1
		ORDER BY total_score DESC, seq
		LIMIT $2`,
		cohort, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying leaderboard")
	}
	entries := make([]leaderboard.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repo.unrow(row))
	}
	return entries, nil
}

func (repo leaderboardRepository) Get(ctx context.Context, learnerID string, cohort int) (leaderboard.Entry, error) {
	var row leaderboardRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM leaderboard WHERE learner_id = $1 AND cohort = $2`, learnerID, cohort)
	if err != nil {
		if err == sql.ErrNoRows {
			return leaderboard.Entry{}, leaderboard.ErrNotRanked
		}
		return leaderboard.Entry{}, errors.Wrap(err, "getting leaderboard entry")
	}
	return repo.unrow(row), nil
}

func (repo leaderboardRepository) CountAbove(ctx context.Context, cohort, score int) (int, error) {
	var count int
	err := repo.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM leaderboard WHERE cohort = $1 AND total_score > $2`, cohort, score)
	if err != nil {
		return 0, errors.Wrap(err, "counting higher scores")
	}
	return count, nil
}
