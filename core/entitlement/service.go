package entitlement

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("entitlement not found")
	ErrAlreadyUnlocked = errors.New("subject already unlocked")
)

type (
	Repository interface {
		// GetOrCreate atomically inserts a locked row if none exists for the
		// pair and returns the row. Concurrent callers must end up with the
		// same single row.
		GetOrCreate(ctx context.Context, learnerID, subjectID string) (Entitlement, error)
		// Unlock flips locked to false and records the purchase metadata.
		// Returns ErrAlreadyUnlocked if the row is already unlocked.
		Unlock(ctx context.Context, learnerID, subjectID string, meta PurchaseMeta) (Entitlement, error)
		// UnlockAll upserts unlocked rows for every given subject, creating
		// missing ones. Returns the number of rows touched.
		UnlockAll(ctx context.Context, learnerID string, subjectIDs []string) (int, error)
		// CreateLockedMissing inserts locked rows for any subject the learner
		// has no row for yet; existing rows are untouched.
		CreateLockedMissing(ctx context.Context, learnerID string, subjectIDs []string) error
		QueryUnlocked(ctx context.Context, learnerID string) ([]Entitlement, error)
	}

	// LearnerDirectory lists the learner profiles belonging to a parent.
	LearnerDirectory interface {
		QueryChildren(ctx context.Context, parentID string) ([]user.User, error)
	}

	// SubjectDirectory lists the subjects available to a cohort.
	SubjectDirectory interface {
		QuerySubjectsByCohort(ctx context.Context, cohort int) ([]catalog.Subject, error)
	}

	Service struct {
		repo     Repository
		learners LearnerDirectory
		subjects SubjectDirectory
	}
)

func NewService(repo Repository, learners LearnerDirectory, subjects SubjectDirectory) *Service {
	return &Service{repo: repo, learners: learners, subjects: subjects}
}

// GetOrCreate returns the pair's entitlement, creating a locked row if absent.
// Calling it twice for the same pair returns the identical row.
func (svc *Service) GetOrCreate(ctx context.Context, learnerID, subjectID string) (Entitlement, error) {
	return svc.repo.GetOrCreate(ctx, learnerID, subjectID)
}

// Unlock transitions locked→unlocked for a single subject purchase.
func (svc *Service) Unlock(ctx context.Context, learnerID, subjectID string, meta PurchaseMeta) (Entitlement, error) {
	ent, err := svc.repo.GetOrCreate(ctx, learnerID, subjectID)
	if err != nil {
		return Entitlement{}, err
	}
	if !ent.Locked {
		return ent, ErrAlreadyUnlocked
	}
	return svc.repo.Unlock(ctx, learnerID, subjectID, meta)
}

// UnlockAllForLearnersOfParent unlocks every subject of every learner
// belonging to the parent, creating missing rows as needed. Runs on
// subscription activation; idempotent.
func (svc *Service) UnlockAllForLearnersOfParent(ctx context.Context, parentID string) (int, error) {
	children, err := svc.learners.QueryChildren(ctx, parentID)
	if err != nil {
		return 0, errors.Wrap(err, "listing learners")
	}

	var total int
	for _, child := range children {
		subjects, err := svc.subjects.QuerySubjectsByCohort(ctx, child.Cohort)
		if err != nil {
			return total, errors.Wrapf(err, "listing subjects for cohort %d", child.Cohort)
		}
		ids := make([]string, 0, len(subjects))
		for _, sub := range subjects {
			ids = append(ids, sub.ID)
		}
		n, err := svc.repo.UnlockAll(ctx, child.ID, ids)
		if err != nil {
			return total, errors.Wrapf(err, "unlocking subjects for learner %s", child.ID)
		}
		total += n
	}
	return total, nil
}

// InitForLearner seeds locked rows for every subject of the learner's cohort.
// Run when a child profile is created; missing rows are also created lazily
// by GetOrCreate, so failures here are not fatal.
func (svc *Service) InitForLearner(ctx context.Context, learnerID string, cohort int) error {
	subjects, err := svc.subjects.QuerySubjectsByCohort(ctx, cohort)
	if err != nil {
		return errors.Wrapf(err, "listing subjects for cohort %d", cohort)
	}
	ids := make([]string, 0, len(subjects))
	for _, sub := range subjects {
		ids = append(ids, sub.ID)
	}
	return svc.repo.CreateLockedMissing(ctx, learnerID, ids)
}

// ListUnlocked returns the learner's purchased (unlocked) entitlements.
func (svc *Service) ListUnlocked(ctx context.Context, learnerID string) ([]Entitlement, error) {
	return svc.repo.QueryUnlocked(ctx, learnerID)
}
