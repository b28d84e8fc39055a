package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID                    string      `db:"id"`
	Name                  string      `db:"name"`
	Email                 null.String `db:"email"`
	PasswordHash          null.Bytes  `db:"password_hash"`
	Emoji                 string      `db:"emoji"`
	Cohort                int         `db:"cohort"`
	ParentID              null.String `db:"parent_id"`
	IsParent              bool        `db:"is_parent"`
	SubscriptionStatus    string      `db:"subscription_status"`
	SubscriptionPlan      string      `db:"subscription_plan"`
	SubscriptionStartedAt null.Time   `db:"subscription_started_at"`
	SubscriptionExpiresAt null.Time   `db:"subscription_expires_at"`
	OTPHash               null.Bytes  `db:"otp_hash"`
	OTPExpiresAt          null.Time   `db:"otp_expires_at"`
	LastActivityAt        null.Time   `db:"last_activity_at"`
	CreatedAt             time.Time   `db:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at"`
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:                    usr.ID,
		Name:                  usr.Name,
		Email:                 null.NewString(usr.Email, usr.Email != ""),
		PasswordHash:          null.NewBytes(usr.PasswordHash, usr.PasswordHash != nil),
		Emoji:                 usr.Emoji,
		Cohort:                usr.Cohort,
		ParentID:              null.NewString(usr.ParentID, usr.ParentID != ""),
		IsParent:              usr.IsParent,
		SubscriptionStatus:    string(usr.Subscription.Status),
		SubscriptionPlan:      string(usr.Subscription.Plan),
		SubscriptionStartedAt: null.NewTime(usr.Subscription.StartedAt.UTC(), !usr.Subscription.StartedAt.IsZero()),
		SubscriptionExpiresAt: null.NewTime(usr.Subscription.ExpiresAt.UTC(), !usr.Subscription.ExpiresAt.IsZero()),
		OTPHash:               null.NewBytes(usr.OTPHash, usr.OTPHash != nil),
		OTPExpiresAt:          null.NewTime(usr.OTPExpiresAt.UTC(), !usr.OTPExpiresAt.IsZero()),
		LastActivityAt:        null.NewTime(usr.LastActivityAt.UTC(), !usr.LastActivityAt.IsZero()),
		CreatedAt:             usr.CreatedAt.UTC(),
		UpdatedAt:             usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) unrow(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email.String,
		PasswordHash: row.PasswordHash.Bytes,
		Emoji:        row.Emoji,
		Cohort:       row.Cohort,
		ParentID:     row.ParentID.String,
		IsParent:     row.IsParent,
		Subscription: user.Subscription{
			Status:    user.SubscriptionStatus(row.SubscriptionStatus),
			Plan:      user.SubscriptionPlan(row.SubscriptionPlan),
			StartedAt: row.SubscriptionStartedAt.Time,
			ExpiresAt: row.SubscriptionExpiresAt.Time,
		},
		OTPHash:        row.OTPHash.Bytes,
		OTPExpiresAt:   row.OTPExpiresAt.Time,
		LastActivityAt: row.LastActivityAt.Time,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1)`, email)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "user" (
			id, name, email, password_hash, emoji, cohort, parent_id, is_parent,
			subscription_status, subscription_plan, subscription_started_at, subscription_expires_at,
			otp_hash, otp_expires_at, last_activity_at, created_at, updated_at
		) VALUES (
			:id, :name, :email, :password_hash, :emoji, :cohort, :parent_id, :is_parent,
			:subscription_status, :subscription_plan, :subscription_started_at, :subscription_expires_at,
			:otp_hash, :otp_expires_at, :last_activity_at, :created_at, :updated_at
		)`, repo.row(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE id = $1`, id); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by id")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE email = $1`, email); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user by email")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) QueryChildren(ctx context.Context, parentID string) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM "user" WHERE parent_id = $1 ORDER BY created_at`, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unrow(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "user" SET
			name = :name, email = :email, password_hash = :password_hash, emoji = :emoji,
			cohort = :cohort, last_activity_at = :last_activity_at, updated_at = :updated_at
		WHERE id = :id`, repo.row(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) SetSubscription(ctx context.Context, parentID string, sub user.Subscription) error {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE "user" SET
			subscription_status = $2, subscription_plan = $3,
			subscription_started_at = $4, subscription_expires_at = $5, updated_at = now()
		WHERE id = $1`,
		parentID, string(sub.Status), string(sub.Plan), sub.StartedAt.UTC(), sub.ExpiresAt.UTC())
	if err != nil {
		return errors.Wrap(err, "setting subscription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetOTP(ctx context.Context, userID string, hash []byte, expiresAt time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE "user" SET otp_hash = $2, otp_expires_at = $3, updated_at = now() WHERE id = $1`,
		userID, hash, expiresAt.UTC())
	if err != nil {
		return errors.Wrap(err, "storing OTP")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) ClearOTP(ctx context.Context, userID string) error {
	_, err := repo.db.ExecContext(ctx,
		`UPDATE "user" SET otp_hash = NULL, otp_expires_at = NULL, updated_at = now() WHERE id = $1`, userID)
	return errors.Wrap(err, "clearing OTP")
}

// DeleteUser removes the user row; entitlement, progress, quiz score and
// leaderboard rows cascade via FKs. The attempt log has no FK and is kept.
func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}
