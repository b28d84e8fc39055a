// Package inmemdb provides map-backed repositories for development and tests.
// All tables share one DB value and one lock so deletes can cascade the way
// the SQL schema's foreign keys do.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/entitlement"
	"github.com/trezcool/darasa/core/leaderboard"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users        map[string]*user.User
	subjects     map[string]*catalog.Subject
	chapters     map[string]*catalog.Chapter
	entitlements map[string]*entitlement.Entitlement // learnerID|subjectID
	completions  map[string]bool                     // learnerID|chapterID
	quizScores   map[string]*progress.QuizScore      // learnerID|chapterID
	questions    map[string]*quiz.Question
	questionSeq  []string       // question insertion order
	attempts     []quiz.Attempt // append-only
	board        map[string]*leaderboard.Entry // learnerID|cohort
	boardSeq     int64
}

func NewDB() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		subjects:     make(map[string]*catalog.Subject),
		chapters:     make(map[string]*catalog.Chapter),
		entitlements: make(map[string]*entitlement.Entitlement),
		completions:  make(map[string]bool),
		quizScores:   make(map[string]*progress.QuizScore),
		questions:    make(map[string]*quiz.Question),
		board:        make(map[string]*leaderboard.Entry),
	}
}

func key(a, b string) string { return a + "|" + b }

// deleteUserData drops a learner's dependent rows. Attempts are kept,
// matching the SQL schema where the attempt table has no user FK.
// Callers must hold the write lock.
func (db *DB) deleteUserData(userID string) {
	for k, ent := range db.entitlements {
		if ent.LearnerID == userID {
			delete(db.entitlements, k)
		}
	}
	for k := range db.completions {
		if keyPrefix(k) == userID {
			delete(db.completions, k)
		}
	}
	for k := range db.quizScores {
		if keyPrefix(k) == userID {
			delete(db.quizScores, k)
		}
	}
	for k, entry := range db.board {
		if entry.LearnerID == userID {
			delete(db.board, k)
		}
	}
}

func keyPrefix(k string) string {
	for i := 0; i < len(k); i++ {
		if k[i] == '|' {
			return k[:i]
		}
	}
	return k
}
