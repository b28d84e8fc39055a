package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/entitlement"
)

type entitlementRepository struct {
	db *sqlx.DB
}

var _ entitlement.Repository = (*entitlementRepository)(nil) // interface compliance check

func NewEntitlementRepository(db *sqlx.DB) *entitlementRepository {
	return &entitlementRepository{db: db}
}

type entitlementRow struct {
	ID            string       `db:"id"`
	LearnerID     string       `db:"learner_id"`
	SubjectID     string       `db:"subject_id"`
	Locked        bool         `db:"locked"`
	PurchasedAt   null.Time    `db:"purchased_at"`
	TransactionID null.String  `db:"transaction_id"`
	OrderID       null.String  `db:"order_id"`
	Amount        null.Float64 `db:"amount"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (repo entitlementRepository) unrow(row entitlementRow) entitlement.Entitlement {
	return entitlement.Entitlement(row)
}

// GetOrCreate inserts a locked row unless the pair already has one, then
// reads whichever row won. ON CONFLICT DO NOTHING keeps concurrent first
// accesses down to a single row.
func (repo entitlementRepository) GetOrCreate(ctx context.Context, learnerID, subjectID string) (entitlement.Entitlement, error) {
	now := time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO entitlement (id, learner_id, subject_id, locked, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		ON CONFLICT (learner_id, subject_id) DO NOTHING`,
		uuid.New().String(), learnerID, subjectID, now)
	if err != nil {
		return entitlement.Entitlement{}, errors.Wrap(err, "inserting entitlement")
	}

	var row entitlementRow
	err = repo.db.GetContext(ctx, &row,
		`SELECT * FROM entitlement WHERE learner_id = $1 AND subject_id = $2`, learnerID, subjectID)
	if err != nil {
		return entitlement.Entitlement{}, errors.Wrap(err, "getting entitlement")
	}
	return repo.unrow(row), nil
}

func (repo entitlementRepository) Unlock(ctx context.Context, learnerID, subjectID string, meta entitlement.PurchaseMeta) (entitlement.Entitlement, error) {
	var row entitlementRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE entitlement SET
			locked = FALSE, purchased_at = now(),
			transaction_id = $3, order_id = $4, amount = $5, updated_at = now()
		WHERE learner_id = $1 AND subject_id = $2 AND locked
		RETURNING *`,
		learnerID, subjectID, meta.TransactionID, meta.OrderID, meta.Amount)
	if err != nil {
		if err == sql.ErrNoRows {
			return entitlement.Entitlement{}, entitlement.ErrAlreadyUnlocked
		}
		return entitlement.Entitlement{}, errors.Wrap(err, "unlocking entitlement")
	}
	return repo.unrow(row), nil
}

func (repo entitlementRepository) UnlockAll(ctx context.Context, learnerID string, subjectIDs []string) (int, error) {
	if len(subjectIDs) == 0 {
		return 0, nil
	}

	var total int64
	now := time.Now().UTC()
	for _, subjectID := range subjectIDs {
		res, err := repo.db.ExecContext(ctx, `
			INSERT INTO entitlement (id, learner_id, subject_id, locked, purchased_at, created_at, updated_at)
			VALUES ($1, $2, $3, FALSE, $4, $4, $4)
			ON CONFLICT (learner_id, subject_id)
			DO UPDATE SET locked = FALSE, purchased_at = COALESCE(entitlement.purchased_at, $4), updated_at = $4`,
			uuid.New().String(), learnerID, subjectID, now)
		if err != nil {
			return int(total), errors.Wrap(err, "unlocking entitlements")
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return int(total), nil
}

func (repo entitlementRepository) CreateLockedMissing(ctx context.Context, learnerID string, subjectIDs []string) error {
	now := time.Now().UTC()
	for _, subjectID := range subjectIDs {
		_, err := repo.db.ExecContext(ctx, `
			INSERT INTO entitlement (id, learner_id, subject_id, locked, created_at, updated_at)
			VALUES ($1, $2, $3, TRUE, $4, $4)
			ON CONFLICT (learner_id, subject_id) DO NOTHING`,
			uuid.New().String(), learnerID, subjectID, now)
		if err != nil {
			return errors.Wrap(err, "seeding entitlements")
		}
	}
	return nil
}

func (repo entitlementRepository) QueryUnlocked(ctx context.Context, learnerID string) ([]entitlement.Entitlement, error) {
	var rows []entitlementRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM entitlement WHERE learner_id = $1 AND NOT locked ORDER BY purchased_at`, learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying unlocked entitlements")
	}
	ents := make([]entitlement.Entitlement, 0, len(rows))
	for _, row := range rows {
		ents = append(ents, repo.unrow(row))
	}
	return ents, nil
}
