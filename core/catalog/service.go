package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound      = errors.New("not found")
	ErrSubjectExists = errors.New("a subject with this name already exists for this class")
	ErrChapterExists = errors.New("a chapter with this name already exists for this subject")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		QuerySubjects(ctx context.Context) ([]Subject, error)
		QuerySubjectsByCohort(ctx context.Context, cohort int) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		// DeleteSubject removes the subject; its chapters and entitlements cascade.
		DeleteSubject(ctx context.Context, id string) error

		// CreateChapter appends the chapter at the next position for its subject.
		CreateChapter(ctx context.Context, ch Chapter) (Chapter, error)
		GetChapter(ctx context.Context, id string) (Chapter, error)
		// QueryChaptersBySubject returns chapters in stable creation order.
		QueryChaptersBySubject(ctx context.Context, subjectID string) ([]Chapter, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) AddSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	sub := Subject{
		Name:      ns.Name,
		Cohort:    ns.Cohort,
		CreatedAt: time.Now().UTC(),
	}
	sub, err := svc.repo.CreateSubject(ctx, sub)
	if err != nil {
		if errors.Cause(err) == ErrSubjectExists {
			return Subject{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Subject{}, err
	}
	return sub, nil
}

func (svc *Service) Subject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) Subjects(ctx context.Context) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx)
}

func (svc *Service) SubjectsByCohort(ctx context.Context, cohort int) ([]Subject, error) {
	return svc.repo.QuerySubjectsByCohort(ctx, cohort)
}

func (svc *Service) UpdateSubject(ctx context.Context, id, name string, cohort int) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	if name != "" {
		sub.Name = core.CleanString(name)
	}
	if cohort != 0 {
		sub.Cohort = cohort
	}
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *Service) DeleteSubject(ctx context.Context, id string) error {
	if _, err := svc.repo.GetSubject(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteSubject(ctx, id)
}

// AddChapter appends a chapter to the subject's creation sequence.
func (svc *Service) AddChapter(ctx context.Context, subjectID string, nc NewChapter) (Chapter, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return Chapter{}, err
	}
	ch := Chapter{
		SubjectID:   subjectID,
		Name:        nc.Name,
		Description: nc.Description,
		VideoURL:    nc.VideoURL,
		CreatedAt:   time.Now().UTC(),
	}
	ch, err := svc.repo.CreateChapter(ctx, ch)
	if err != nil {
		if errors.Cause(err) == ErrChapterExists {
			return Chapter{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Chapter{}, err
	}
	return ch, nil
}

// ListChaptersOrdered returns the subject's chapters in creation order;
// the first element is the always-free chapter.
func (svc *Service) ListChaptersOrdered(ctx context.Context, subjectID string) ([]Chapter, error) {
	if _, err := svc.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryChaptersBySubject(ctx, subjectID)
}

func (svc *Service) FindChapter(ctx context.Context, chapterID string) (Chapter, error) {
	return svc.repo.GetChapter(ctx, chapterID)
}
