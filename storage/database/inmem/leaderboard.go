package inmemdb

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/trezcool/darasa/core/leaderboard"
)

type leaderboardRepository struct {
	db *DB
}

var _ leaderboard.Repository = (*leaderboardRepository)(nil) // interface compliance check

func NewLeaderboardRepository(db *DB) *leaderboardRepository {
	return &leaderboardRepository{db: db}
}

func boardKey(learnerID string, cohort int) string {
	return key(learnerID, strconv.Itoa(cohort))
}

func (repo *leaderboardRepository) AddPoints(_ context.Context, learnerID string, cohort, points int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	k := boardKey(learnerID, cohort)
	entry, ok := repo.db.board[k]
	if !ok {
		repo.db.boardSeq++
		entry = &leaderboard.Entry{
			Seq:       repo.db.boardSeq,
			LearnerID: learnerID,
			Cohort:    cohort,
			CreatedAt: time.Now().UTC(),
		}
		repo.db.board[k] = entry
	}
	entry.TotalScore += points
	return nil
}

func (repo *leaderboardRepository) Top(_ context.Context, cohort, n int) ([]leaderboard.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var entries []leaderboard.Entry
	for _, entry := range repo.db.board {
		if entry.Cohort == cohort {
			entries = append(entries, *entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].Seq < entries[j].Seq
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (repo *leaderboardRepository) Get(_ context.Context, learnerID string, cohort int) (leaderboard.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.board[boardKey(learnerID, cohort)]; ok {
		return *entry, nil
	}
	return leaderboard.Entry{}, leaderboard.ErrNotRanked
}

func (repo *leaderboardRepository) CountAbove(_ context.Context, cohort, score int) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	count := 0
	for _, entry := range repo.db.board {
		if entry.Cohort == cohort && entry.TotalScore > score {
			count++
		}
	}
	return count, nil
}
