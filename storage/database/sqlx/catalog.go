package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/catalog"
)

const pqUniqueViolation = "23505"

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

type subjectRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Cohort    int       `db:"cohort"`
	CreatedAt time.Time `db:"created_at"`
}

type chapterRow struct {
	ID          string    `db:"id"`
	SubjectID   string    `db:"subject_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	VideoURL    string    `db:"video_url"`
	Position    int       `db:"position"`
	CreatedAt   time.Time `db:"created_at"`
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func (repo catalogRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return catalog.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo catalogRepository) CreateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	sub.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO subject (id, name, cohort, created_at) VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.Name, sub.Cohort, sub.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Subject{}, catalog.ErrSubjectExists
		}
		return catalog.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo catalogRepository) GetSubject(ctx context.Context, id string) (catalog.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		return catalog.Subject{}, repo.trapNoRowsErr(err, "getting subject")
	}
	return catalog.Subject(row), nil
}

func (repo catalogRepository) QuerySubjects(ctx context.Context) ([]catalog.Subject, error) {
	var rows []subjectRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject ORDER BY cohort, name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjectSlice(rows), nil
}

func (repo catalogRepository) QuerySubjectsByCohort(ctx context.Context, cohort int) ([]catalog.Subject, error) {
	var rows []subjectRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM subject WHERE cohort = $1 ORDER BY name`, cohort)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects by cohort")
	}
	return subjectSlice(rows), nil
}

func (repo catalogRepository) UpdateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE subject SET name = $2, cohort = $3 WHERE id = $1`, sub.ID, sub.Name, sub.Cohort)
	if err != nil {
		if isUniqueViolation(err) {
			return catalog.Subject{}, catalog.ErrSubjectExists
		}
		return catalog.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.Subject{}, catalog.ErrNotFound
	}
	return sub, nil
}

func (repo catalogRepository) DeleteSubject(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// CreateChapter appends the chapter at the subject's next position. The
// position is computed in the insert itself so concurrent appends hit the
// (subject_id, position) unique constraint instead of racing.
func (repo catalogRepository) CreateChapter(ctx context.Context, ch catalog.Chapter) (catalog.Chapter, error) {
	ch.ID = uuid.New().String()
	row := repo.db.QueryRowxContext(ctx, `
		INSERT INTO chapter (id, subject_id, name, description, video_url, position, created_at)
		SELECT $1, $2, $3, $4, $5, COALESCE(MAX(position), 0) + 1, $6
		FROM chapter WHERE subject_id = $2
		RETURNING position`,
		ch.ID, ch.SubjectID, ch.Name, ch.Description, ch.VideoURL, ch.CreatedAt.UTC())
	if err := row.Scan(&ch.Position); err != nil {
		if isUniqueViolation(err) {
			return catalog.Chapter{}, catalog.ErrChapterExists
		}
		return catalog.Chapter{}, errors.Wrap(err, "inserting chapter")
	}
	return ch, nil
}

func (repo catalogRepository) GetChapter(ctx context.Context, id string) (catalog.Chapter, error) {
	var row chapterRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM chapter WHERE id = $1`, id); err != nil {
		return catalog.Chapter{}, repo.trapNoRowsErr(err, "getting chapter")
	}
	return catalog.Chapter(row), nil
}

func (repo catalogRepository) QueryChaptersBySubject(ctx context.Context, subjectID string) ([]catalog.Chapter, error) {
	var rows []chapterRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM chapter WHERE subject_id = $1 ORDER BY position`, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	chapters := make([]catalog.Chapter, 0, len(rows))
	for _, row := range rows {
		chapters = append(chapters, catalog.Chapter(row))
	}
	return chapters, nil
}

func subjectSlice(rows []subjectRow) []catalog.Subject {
	subjects := make([]catalog.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, catalog.Subject(row))
	}
	return subjects
}
