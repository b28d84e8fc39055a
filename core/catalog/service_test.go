package catalog_test

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func newTestService(t *testing.T) *catalog.Service {
	t.Helper()
	return catalog.NewService(inmemdb.NewCatalogRepository(inmemdb.NewDB()))
}

func TestService_Subjects(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	math, err := svc.AddSubject(ctx, catalog.NewSubject{Name: "Mathematics", Cohort: 3})
	if err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}

	// the same name in the same class is rejected as a field error
	_, err = svc.AddSubject(ctx, catalog.NewSubject{Name: "Mathematics", Cohort: 3})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("AddSubject() error = %v, want *core.ValidationError", err)
	}
	// the same name in another class is fine
	if _, err = svc.AddSubject(ctx, catalog.NewSubject{Name: "Mathematics", Cohort: 5}); err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}

	subjects, err := svc.SubjectsByCohort(ctx, 3)
	if err != nil {
		t.Fatalf("SubjectsByCohort() failed, %v", err)
	}
	if len(subjects) != 1 || subjects[0].ID != math.ID {
		t.Errorf("SubjectsByCohort() = %v, want only %s", subjects, math.ID)
	}

	updated, err := svc.UpdateSubject(ctx, math.ID, "Maths", 0)
	if err != nil {
		t.Fatalf("UpdateSubject() failed, %v", err)
	}
	if updated.Name != "Maths" || updated.Cohort != 3 {
		t.Errorf("UpdateSubject() = (%s, %d), want (Maths, 3)", updated.Name, updated.Cohort)
	}

	if _, err = svc.Subject(ctx, "nope"); err != catalog.ErrNotFound {
		t.Errorf("Subject() error = %v, wantErr %v", err, catalog.ErrNotFound)
	}
}

func TestService_Chapters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	math, err := svc.AddSubject(ctx, catalog.NewSubject{Name: "Mathematics", Cohort: 3})
	if err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}

	if _, err = svc.AddChapter(ctx, "nope", catalog.NewChapter{Name: "Counting"}); err != catalog.ErrNotFound {
		t.Errorf("AddChapter() error = %v, wantErr %v", err, catalog.ErrNotFound)
	}

	// positions follow creation order and only the first chapter is free
	names := []string{"Counting", "Addition", "Shapes"}
	for i, name := range names {
		ch, err := svc.AddChapter(ctx, math.ID, catalog.NewChapter{Name: name})
		if err != nil {
			t.Fatalf("AddChapter(%s) failed, %v", name, err)
		}
		if ch.Position != i+1 {
			t.Errorf("Position = %d, want %d", ch.Position, i+1)
		}
		if ch.IsFree() != (i == 0) {
			t.Errorf("IsFree() = %v for position %d", ch.IsFree(), ch.Position)
		}
	}

	// duplicate chapter name within the subject is rejected
	_, err = svc.AddChapter(ctx, math.ID, catalog.NewChapter{Name: "Counting"})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("AddChapter() error = %v, want *core.ValidationError", err)
	}

	chapters, err := svc.ListChaptersOrdered(ctx, math.ID)
	if err != nil {
		t.Fatalf("ListChaptersOrdered() failed, %v", err)
	}
	if len(chapters) != 3 {
		t.Fatalf("len(chapters) = %d, want 3", len(chapters))
	}
	for i, ch := range chapters {
		if ch.Name != names[i] {
			t.Errorf("chapters[%d] = %s, want %s", i, ch.Name, names[i])
		}
	}
}

func TestService_DeleteSubject(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	math, err := svc.AddSubject(ctx, catalog.NewSubject{Name: "Mathematics", Cohort: 3})
	if err != nil {
		t.Fatalf("AddSubject() failed, %v", err)
	}
	ch, err := svc.AddChapter(ctx, math.ID, catalog.NewChapter{Name: "Counting"})
	if err != nil {
		t.Fatalf("AddChapter() failed, %v", err)
	}

	if err = svc.DeleteSubject(ctx, "nope"); err != catalog.ErrNotFound {
		t.Errorf("DeleteSubject() error = %v, wantErr %v", err, catalog.ErrNotFound)
	}
	if err = svc.DeleteSubject(ctx, math.ID); err != nil {
		t.Fatalf("DeleteSubject() failed, %v", err)
	}
	if _, err = svc.Subject(ctx, math.ID); err != catalog.ErrNotFound {
		t.Errorf("Subject() after delete error = %v, wantErr %v", err, catalog.ErrNotFound)
	}
	if _, err = svc.FindChapter(ctx, ch.ID); err != catalog.ErrNotFound {
		t.Errorf("FindChapter() after delete error = %v, wantErr %v", err, catalog.ErrNotFound)
	}
}
