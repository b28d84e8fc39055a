package progress_test

import (
	"context"
	"testing"

	"github.com/trezcool/darasa/core/progress"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func TestService_Completion(t *testing.T) {
	svc := progress.NewService(inmemdb.NewProgressRepository(inmemdb.NewDB()))
	ctx := context.Background()

	done, err := svc.IsCompleted(ctx, "kid-1", "ch-1")
	if err != nil {
		t.Fatalf("IsCompleted() failed, %v", err)
	}
	if done {
		t.Error("chapter completed before any progress")
	}

	if err = svc.MarkCompleted(ctx, "kid-1", "ch-1"); err != nil {
		t.Fatalf("MarkCompleted() failed, %v", err)
	}
	// marking twice is a no-op
	if err = svc.MarkCompleted(ctx, "kid-1", "ch-1"); err != nil {
		t.Fatalf("MarkCompleted() failed, %v", err)
	}

	done, err = svc.IsCompleted(ctx, "kid-1", "ch-1")
	if err != nil {
		t.Fatalf("IsCompleted() failed, %v", err)
	}
	if !done {
		t.Error("chapter not completed after MarkCompleted")
	}

	set, err := svc.CompletedSet(ctx, "kid-1", []string{"ch-1", "ch-2"})
	if err != nil {
		t.Fatalf("CompletedSet() failed, %v", err)
	}
	if !set["ch-1"] || set["ch-2"] {
		t.Errorf("CompletedSet() = %v, want only ch-1", set)
	}
}

func TestService_QuizScore(t *testing.T) {
	svc := progress.NewService(inmemdb.NewProgressRepository(inmemdb.NewDB()))
	ctx := context.Background()

	if _, err := svc.ChapterScore(ctx, "kid-1", "ch-1"); err != progress.ErrNotFound {
		t.Errorf("ChapterScore() error = %v, wantErr %v", err, progress.ErrNotFound)
	}

	if err := svc.RecordQuizScore(ctx, "kid-1", "ch-1", 6, 5); err == nil {
		t.Error("RecordQuizScore() accepted score above total")
	}
	if err := svc.RecordQuizScore(ctx, "kid-1", "ch-1", -1, 5); err == nil {
		t.Error("RecordQuizScore() accepted negative score")
	}

	if err := svc.RecordQuizScore(ctx, "kid-1", "ch-1", 3, 5); err != nil {
		t.Fatalf("RecordQuizScore() failed, %v", err)
	}
	// last write wins
	if err := svc.RecordQuizScore(ctx, "kid-1", "ch-1", 5, 5); err != nil {
		t.Fatalf("RecordQuizScore() failed, %v", err)
	}

	qs, err := svc.ChapterScore(ctx, "kid-1", "ch-1")
	if err != nil {
		t.Fatalf("ChapterScore() failed, %v", err)
	}
	if qs.Score != 5 || qs.TotalMarks != 5 {
		t.Errorf("score = %d/%d, want 5/5", qs.Score, qs.TotalMarks)
	}
}
