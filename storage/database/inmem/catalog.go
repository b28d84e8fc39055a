package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo *catalogRepository) CreateSubject(_ context.Context, sub catalog.Subject) (catalog.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == sub.Name && s.Cohort == sub.Cohort {
			return catalog.Subject{}, catalog.ErrSubjectExists
		}
	}
	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *catalogRepository) GetSubject(_ context.Context, id string) (catalog.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok {
		return *sub, nil
	}
	return catalog.Subject{}, catalog.ErrNotFound
}

func (repo *catalogRepository) QuerySubjects(_ context.Context) ([]catalog.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subjects := make([]catalog.Subject, 0, len(repo.db.subjects))
	for _, sub := range repo.db.subjects {
		subjects = append(subjects, *sub)
	}
	sortSubjects(subjects)
	return subjects, nil
}

func (repo *catalogRepository) QuerySubjectsByCohort(_ context.Context, cohort int) ([]catalog.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var subjects []catalog.Subject
	for _, sub := range repo.db.subjects {
		if sub.Cohort == cohort {
			subjects = append(subjects, *sub)
		}
	}
	sortSubjects(subjects)
	return subjects, nil
}

func (repo *catalogRepository) UpdateSubject(_ context.Context, sub catalog.Subject) (catalog.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok {
		return catalog.Subject{}, catalog.ErrNotFound
	}
	for _, s := range repo.db.subjects {
		if s.ID != sub.ID && s.Name == sub.Name && s.Cohort == sub.Cohort {
			return catalog.Subject{}, catalog.ErrSubjectExists
		}
	}
	orig.Name = sub.Name
	orig.Cohort = sub.Cohort
	return *orig, nil
}

func (repo *catalogRepository) DeleteSubject(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(repo.db.subjects, id)

	// cascade chapters and entitlements
	for chID, ch := range repo.db.chapters {
		if ch.SubjectID == id {
			delete(repo.db.chapters, chID)
		}
	}
	for k, ent := range repo.db.entitlements {
		if ent.SubjectID == id {
			delete(repo.db.entitlements, k)
		}
	}
	return nil
}

func (repo *catalogRepository) CreateChapter(_ context.Context, ch catalog.Chapter) (catalog.Chapter, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	maxPos := 0
	for _, c := range repo.db.chapters {
		if c.SubjectID != ch.SubjectID {
			continue
		}
		if c.Name == ch.Name {
			return catalog.Chapter{}, catalog.ErrChapterExists
		}
		if c.Position > maxPos {
			maxPos = c.Position
		}
	}
	ch.ID = uuid.New().String()
	ch.Position = maxPos + 1
	repo.db.chapters[ch.ID] = &ch
	return ch, nil
}

func (repo *catalogRepository) GetChapter(_ context.Context, id string) (catalog.Chapter, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ch, ok := repo.db.chapters[id]; ok {
		return *ch, nil
	}
	return catalog.Chapter{}, catalog.ErrNotFound
}

func (repo *catalogRepository) QueryChaptersBySubject(_ context.Context, subjectID string) ([]catalog.Chapter, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var chapters []catalog.Chapter
	for _, ch := range repo.db.chapters {
		if ch.SubjectID == subjectID {
			chapters = append(chapters, *ch)
		}
	}
	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Position < chapters[j].Position })
	return chapters, nil
}

func sortSubjects(subjects []catalog.Subject) {
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Cohort != subjects[j].Cohort {
			return subjects[i].Cohort < subjects[j].Cohort
		}
		return subjects[i].Name < subjects[j].Name
	})
}
