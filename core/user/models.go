package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// SubscriptionStatus is the lifecycle state of a parent subscription.
type SubscriptionStatus string

const (
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// SubscriptionPlan is the billing plan of a parent subscription.
type SubscriptionPlan string

const (
	PlanNone    SubscriptionPlan = "none"
	PlanMonthly SubscriptionPlan = "monthly"
	PlanYearly  SubscriptionPlan = "yearly"
)

// Subscription belongs to a parent account and gates content for all of the
// parent's learners.
type Subscription struct {
	Status    SubscriptionStatus `json:"status"`
	Plan      SubscriptionPlan   `json:"type"`
	StartedAt time.Time          `json:"start_date"`
	ExpiresAt time.Time          `json:"end_date"`
}

// IsActive reports whether the subscription currently grants access.
// Expiry of the end date is advisory and is not checked here.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// User is either a parent account or a learner (child) profile.
// Learners have ParentID set and authenticate through their parent.
type User struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email,omitempty"`
	PasswordHash   []byte       `json:"-"`
	Emoji          string       `json:"emoji,omitempty"`
	Cohort         int          `json:"classno,omitempty"` // learner's class number
	ParentID       string       `json:"parent_id,omitempty"`
	IsParent       bool         `json:"is_parent"`
	Subscription   Subscription `json:"subscription"`
	OTPHash        []byte       `json:"-"`
	OTPExpiresAt   time.Time    `json:"-"`
	LastActivityAt time.Time    `json:"-"`
	CreatedAt      time.Time    `json:"created_at"` // UTC
	UpdatedAt      time.Time    `json:"updated_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// IsLearner reports whether this user is a child profile.
func (u *User) IsLearner() bool { return !u.IsParent }

// NewParent contains information needed to register a parent account.
type NewParent struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Email = core.CleanString(np.Email, true /* lower */)
	return validate.Struct(np)
}

// NewChild contains information needed to add a learner profile under a parent.
type NewChild struct {
	Name   string `json:"name" validate:"required"`
	Cohort int    `json:"classno" validate:"required,min=1,max=12"`
	Emoji  string `json:"emoji"`
}

func (nc *NewChild) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	if nc.Emoji == "" {
		nc.Emoji = "🐱"
	}
	return validate.Struct(nc)
}

// UpdateChild defines what information may be provided to modify a learner profile.
type UpdateChild struct {
	Name   string `json:"name"`
	Cohort int    `json:"classno" validate:"omitempty,min=1,max=12"`
	Emoji  string `json:"emoji"`
}

func (uc *UpdateChild) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}
