package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrNotParent   = errors.New("parent access only")
	ErrInvalidOTP  = errors.New("invalid code")
	ErrOTPExpired  = errors.New("code expired")
	ErrInvalidPlan = errors.New("invalid subscription plan")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryChildren(ctx context.Context, parentID string) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetSubscription(ctx context.Context, parentID string, sub Subscription) error
		SetOTP(ctx context.Context, userID string, hash []byte, expiresAt time.Time) error
		ClearOTP(ctx context.Context, userID string) error
		// DeleteUser removes the user; learner data (entitlements, progress,
		// leaderboard entries) cascades. Attempts are kept, append-only.
		DeleteUser(ctx context.Context, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Register creates a new parent account on a trial subscription.
func (svc *Service) Register(ctx context.Context, np NewParent) (User, error) {
	if err := svc.repo.CheckEmailUniqueness(ctx, np.Email); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:     np.Name,
		Email:    np.Email,
		IsParent: true,
		Subscription: Subscription{
			Status: SubscriptionTrial,
			Plan:   PlanNone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(np.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// SetLastActivity stamps the account's last activity time; used by login.
func (svc *Service) SetLastActivity(ctx context.Context, usr User) (User, error) {
	usr.LastActivityAt = time.Now().UTC()
	usr.UpdatedAt = usr.LastActivityAt
	return svc.repo.UpdateUser(ctx, usr)
}

// CreateChild adds a learner profile under the given parent.
func (svc *Service) CreateChild(ctx context.Context, parentID string, nc NewChild) (User, error) {
	parent, err := svc.parent(ctx, parentID)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	child := User{
		Name:      nc.Name,
		Emoji:     nc.Emoji,
		Cohort:    nc.Cohort,
		ParentID:  parent.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateUser(ctx, child)
}

func (svc *Service) Children(ctx context.Context, parentID string) ([]User, error) {
	return svc.repo.QueryChildren(ctx, parentID)
}

// Child fetches a learner profile, enforcing that it belongs to the parent.
func (svc *Service) Child(ctx context.Context, parentID, childID string) (User, error) {
	child, err := svc.repo.GetUserByID(ctx, childID)
	if err != nil {
		return User{}, err
	}
	if child.IsParent || child.ParentID != parentID {
		return User{}, ErrNotFound
	}
	return child, nil
}

func (svc *Service) UpdateChild(ctx context.Context, parentID, childID string, uc UpdateChild) (User, error) {
	child, err := svc.Child(ctx, parentID, childID)
	if err != nil {
		return User{}, err
	}
	if uc.Name != "" {
		child.Name = uc.Name
	}
	if uc.Cohort != 0 {
		child.Cohort = uc.Cohort
	}
	if uc.Emoji != "" {
		child.Emoji = uc.Emoji
	}
	child.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, child)
}

// RequestChildDeletion generates a one-time code, stores its hash on the
// parent account and emails the code to the parent.
func (svc *Service) RequestChildDeletion(ctx context.Context, parentID, childID string) error {
	parent, err := svc.parent(ctx, parentID)
	if err != nil {
		return err
	}
	child, err := svc.Child(ctx, parentID, childID)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return errors.Wrap(err, "generating OTP")
	}
	expiresAt := NowFunc().UTC().Add(svc.conf.OTPTimeout)
	if err = svc.repo.SetOTP(ctx, parent.ID, hashOTP(code, svc.conf), expiresAt); err != nil {
		return errors.Wrap(err, "storing OTP")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: parent.Name, Address: parent.Email}},
		Subject: "Confirm profile deletion",
		BodyStr: fmt.Sprintf(
			"Use code %s to confirm the deletion of %s's profile. The code expires in %v.",
			code, child.Name, svc.conf.OTPTimeout),
	})
	return nil
}

// ConfirmChildDeletion verifies the one-time code and deletes the learner
// profile along with its entitlement/progress/leaderboard data.
func (svc *Service) ConfirmChildDeletion(ctx context.Context, parentID, childID, code string) error {
	parent, err := svc.parent(ctx, parentID)
	if err != nil {
		return err
	}
	child, err := svc.Child(ctx, parentID, childID)
	if err != nil {
		return err
	}
	if err = verifyOTP(parent, code, svc.conf); err != nil {
		return err
	}
	if err = svc.repo.ClearOTP(ctx, parent.ID); err != nil {
		return errors.Wrap(err, "clearing OTP")
	}
	return svc.repo.DeleteUser(ctx, child.ID)
}

func (svc *Service) Subscription(ctx context.Context, parentID string) (Subscription, error) {
	parent, err := svc.parent(ctx, parentID)
	if err != nil {
		return Subscription{}, err
	}
	return parent.Subscription, nil
}

// ActivateSubscription flips the parent's subscription to active for the
// given plan. Payment is handled upstream; this is a trusted state change.
// Unlocking the learners' entitlements is composed by the caller.
func (svc *Service) ActivateSubscription(ctx context.Context, parentID string, plan SubscriptionPlan) (Subscription, error) {
	parent, err := svc.parent(ctx, parentID)
	if err != nil {
		return Subscription{}, err
	}

	now := time.Now().UTC()
	sub := Subscription{
		Status:    SubscriptionActive,
		Plan:      plan,
		StartedAt: now,
	}
	switch plan {
	case PlanMonthly:
		sub.ExpiresAt = now.AddDate(0, 1, 0)
	case PlanYearly:
		sub.ExpiresAt = now.AddDate(1, 0, 0)
	default:
		return Subscription{}, ErrInvalidPlan
	}

	if err = svc.repo.SetSubscription(ctx, parent.ID, sub); err != nil {
		return Subscription{}, errors.Wrap(err, "setting subscription")
	}
	return sub, nil
}

func (svc *Service) parent(ctx context.Context, parentID string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, parentID)
	if err != nil {
		return User{}, err
	}
	if !usr.IsParent {
		return User{}, ErrNotParent
	}
	return usr, nil
}
