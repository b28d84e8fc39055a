// Package access decides, for a given learner and piece of content, whether
// it is locked, in progress or completed.
package access

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/entitlement"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

// Status classifies a chapter for a specific learner.
type Status string

const (
	StatusLocked     Status = "locked"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

type (
	// ChapterAccess is a chapter together with its status for one learner.
	ChapterAccess struct {
		catalog.Chapter
		Status Status `json:"status"`
	}

	// SubjectAccess is the coarse subject-level lock state for one learner.
	// The free-first-chapter exception does not apply at this level.
	SubjectAccess struct {
		catalog.Subject
		Locked      bool      `json:"locked"`
		PurchasedAt null.Time `json:"purchase_date,omitempty"`
	}

	Resolver struct {
		users    *user.Service
		catalog  *catalog.Service
		ents     *entitlement.Service
		progress *progress.Service
	}
)

func NewResolver(users *user.Service, cat *catalog.Service, ents *entitlement.Service, prog *progress.Service) *Resolver {
	return &Resolver{users: users, catalog: cat, ents: ents, progress: prog}
}

// ResolveChapters classifies every chapter of the subject for the learner.
// Precedence: the first chapter is always accessible; then an active parent
// subscription; then an unlocked entitlement; otherwise locked.
func (r *Resolver) ResolveChapters(ctx context.Context, learnerID, subjectID string) ([]ChapterAccess, error) {
	learner, err := r.users.GetByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	chapters, err := r.catalog.ListChaptersOrdered(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	unlocked, err := r.unlocked(ctx, learner, subjectID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}
	completed, err := r.progress.CompletedSet(ctx, learner.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "loading progress")
	}

	out := make([]ChapterAccess, 0, len(chapters))
	for _, ch := range chapters {
		out = append(out, ChapterAccess{
			Chapter: ch,
			Status:  classify(ch.IsFree() || unlocked, completed[ch.ID]),
		})
	}
	return out, nil
}

// ResolveChapter classifies a single chapter for the learner.
func (r *Resolver) ResolveChapter(ctx context.Context, learnerID, chapterID string) (ChapterAccess, error) {
	learner, err := r.users.GetByID(ctx, learnerID)
	if err != nil {
		return ChapterAccess{}, err
	}

	ch, err := r.catalog.FindChapter(ctx, chapterID)
	if err != nil {
		return ChapterAccess{}, err
	}

	unlocked, err := r.unlocked(ctx, learner, ch.SubjectID)
	if err != nil {
		return ChapterAccess{}, err
	}

	done, err := r.progress.IsCompleted(ctx, learner.ID, ch.ID)
	if err != nil {
		return ChapterAccess{}, errors.Wrap(err, "loading progress")
	}
	return ChapterAccess{Chapter: ch, Status: classify(ch.IsFree() || unlocked, done)}, nil
}

// SubjectLocked reports the coarse subject-level lock: locked entitlement AND
// no active subscription. Used by subject listings; ignores the free first
// chapter.
func (r *Resolver) SubjectLocked(ctx context.Context, learnerID, subjectID string) (bool, error) {
	learner, err := r.users.GetByID(ctx, learnerID)
	if err != nil {
		return false, err
	}
	unlocked, err := r.unlocked(ctx, learner, subjectID)
	return !unlocked, err
}

// SubjectsWithStatus lists the learner's cohort subjects with their lock state.
func (r *Resolver) SubjectsWithStatus(ctx context.Context, learnerID string) ([]SubjectAccess, error) {
	learner, err := r.users.GetByID(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	subjects, err := r.catalog.SubjectsByCohort(ctx, learner.Cohort)
	if err != nil {
		return nil, err
	}

	subActive, err := r.subscriptionActive(ctx, learner)
	if err != nil {
		return nil, err
	}

	out := make([]SubjectAccess, 0, len(subjects))
	for _, sub := range subjects {
		ent, err := r.ents.GetOrCreate(ctx, learner.ID, sub.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving entitlement for subject %s", sub.ID)
		}
		sa := SubjectAccess{Subject: sub, Locked: ent.Locked && !subActive}
		if !ent.Locked {
			sa.PurchasedAt = ent.PurchasedAt
		}
		out = append(out, sa)
	}
	return out, nil
}

// unlocked reports whether the subject's content (beyond the free chapter) is
// accessible to the learner: active subscription OR unlocked entitlement.
func (r *Resolver) unlocked(ctx context.Context, learner user.User, subjectID string) (bool, error) {
	subActive, err := r.subscriptionActive(ctx, learner)
	if err != nil {
		return false, err
	}
	if subActive {
		return true, nil
	}

	ent, err := r.ents.GetOrCreate(ctx, learner.ID, subjectID)
	if err != nil {
		return false, errors.Wrap(err, "resolving entitlement")
	}
	return !ent.Locked, nil
}

// subscriptionActive checks the owning parent's subscription; a parent account
// browsing as itself is its own subscription source.
func (r *Resolver) subscriptionActive(ctx context.Context, learner user.User) (bool, error) {
	if learner.ParentID == "" {
		return learner.Subscription.IsActive(), nil
	}
	parent, err := r.users.GetByID(ctx, learner.ParentID)
	if err != nil {
		return false, errors.Wrap(err, "loading parent")
	}
	return parent.Subscription.IsActive(), nil
}

func classify(accessible, completed bool) Status {
	switch {
	case !accessible:
		return StatusLocked
	case completed:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}
