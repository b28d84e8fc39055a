package access

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/progress"
)

type (
	ChapterReport struct {
		ChapterID   string `json:"chapter_id"`
		ChapterName string `json:"chapter_name"`
		Completed   bool   `json:"completed"`
		QuizScore   *int   `json:"quiz_score"`
		TotalMarks  *int   `json:"total_marks"`
	}

	SubjectReport struct {
		SubjectID         string          `json:"subject_id"`
		SubjectName       string          `json:"subject_name"`
		TotalChapters     int             `json:"total_chapters"`
		CompletedChapters int             `json:"completed_chapters"`
		CompletionPercent int             `json:"completion_percentage"`
		Chapters          []ChapterReport `json:"chapters"`
	}

	LearnerReport struct {
		ChildID   string          `json:"child_id"`
		ChildName string          `json:"child_name"`
		Cohort    int             `json:"classno"`
		Emoji     string          `json:"emoji"`
		Subjects  []SubjectReport `json:"subjects"`
	}
)

// AcademicReport aggregates completion and quiz scores for every learner of
// the parent, per subject and chapter.
func (r *Resolver) AcademicReport(ctx context.Context, parentID string) ([]LearnerReport, error) {
	children, err := r.users.Children(ctx, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "listing learners")
	}

	reports := make([]LearnerReport, 0, len(children))
	for _, child := range children {
		subjects, err := r.catalog.SubjectsByCohort(ctx, child.Cohort)
		if err != nil {
			return nil, err
		}

		subReports := make([]SubjectReport, 0, len(subjects))
		for _, sub := range subjects {
			chapters, err := r.catalog.ListChaptersOrdered(ctx, sub.ID)
			if err != nil {
				return nil, err
			}

			ids := make([]string, 0, len(chapters))
			for _, ch := range chapters {
				ids = append(ids, ch.ID)
			}
			completed, err := r.progress.CompletedSet(ctx, child.ID, ids)
			if err != nil {
				return nil, errors.Wrap(err, "loading progress")
			}

			var done int
			chReports := make([]ChapterReport, 0, len(chapters))
			for _, ch := range chapters {
				cr := ChapterReport{
					ChapterID:   ch.ID,
					ChapterName: ch.Name,
					Completed:   completed[ch.ID],
				}
				if cr.Completed {
					done++
				}
				if qs, err := r.progress.ChapterScore(ctx, child.ID, ch.ID); err == nil {
					score, total := qs.Score, qs.TotalMarks
					cr.QuizScore, cr.TotalMarks = &score, &total
				} else if errors.Cause(err) != progress.ErrNotFound {
					return nil, errors.Wrap(err, "loading quiz score")
				}
				chReports = append(chReports, cr)
			}

			var pct int
			if len(chapters) > 0 {
				pct = int(math.Round(float64(done) / float64(len(chapters)) * 100))
			}
			subReports = append(subReports, SubjectReport{
				SubjectID:         sub.ID,
				SubjectName:       sub.Name,
				TotalChapters:     len(chapters),
				CompletedChapters: done,
				CompletionPercent: pct,
				Chapters:          chReports,
			})
		}

		reports = append(reports, LearnerReport{
			ChildID:   child.ID,
			ChildName: child.Name,
			Cohort:    child.Cohort,
			Emoji:     child.Emoji,
			Subjects:  subReports,
		})
	}
	return reports, nil
}
