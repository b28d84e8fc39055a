package user_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var otpRegex = regexp.MustCompile(`code (\d{6})`)

func newTestService(t *testing.T) *user.Service {
	t.Helper()
	conf := core.NewTestConfig()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf)
}

func registerParent(t *testing.T, svc *user.Service, email string) user.User {
	t.Helper()
	parent, err := svc.Register(context.Background(), user.NewParent{
		Name:     "Jane Doe",
		Email:    email,
		Password: "s3cr3tpwd",
	})
	if err != nil {
		t.Fatalf("Register() failed, %v", err)
	}
	return parent
}

func createChild(t *testing.T, svc *user.Service, parentID string) user.User {
	t.Helper()
	child, err := svc.CreateChild(context.Background(), parentID, user.NewChild{
		Name:   "Amani",
		Cohort: 3,
		Emoji:  "🐱",
	})
	if err != nil {
		t.Fatalf("CreateChild() failed, %v", err)
	}
	return child
}

func TestService_Register(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := registerParent(t, svc, "jane@test.cd")
	if !parent.IsParent {
		t.Error("registered user is not a parent")
	}
	if parent.Subscription.Status != user.SubscriptionTrial {
		t.Errorf("Subscription.Status = %s, want %s", parent.Subscription.Status, user.SubscriptionTrial)
	}
	if parent.Subscription.Plan != user.PlanNone {
		t.Errorf("Subscription.Plan = %s, want %s", parent.Subscription.Plan, user.PlanNone)
	}
	if err := parent.CheckPassword("s3cr3tpwd"); err != nil {
		t.Error("password was not set")
	}

	// duplicate email surfaces as a field error
	_, err := svc.Register(ctx, user.NewParent{Name: "Jane Again", Email: "jane@test.cd", Password: "s3cr3tpwd"})
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("Register() error = %v, want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
		t.Errorf("Fields = %v, want one error on email", vErr.Fields)
	}
}

func TestService_ChildLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := registerParent(t, svc, "jane@test.cd")
	stranger := registerParent(t, svc, "john@test.cd")
	child := createChild(t, svc, parent.ID)

	if child.ParentID != parent.ID {
		t.Errorf("ParentID = %s, want %s", child.ParentID, parent.ID)
	}
	if child.IsParent {
		t.Error("child must not be a parent")
	}

	// only parents can own children
	if _, err := svc.CreateChild(ctx, child.ID, user.NewChild{Name: "Nope", Cohort: 1}); err != user.ErrNotParent {
		t.Errorf("CreateChild() error = %v, wantErr %v", err, user.ErrNotParent)
	}

	// ownership is enforced on lookup
	if _, err := svc.Child(ctx, stranger.ID, child.ID); err != user.ErrNotFound {
		t.Errorf("Child() error = %v, wantErr %v", err, user.ErrNotFound)
	}
	if _, err := svc.Child(ctx, parent.ID, parent.ID); err != user.ErrNotFound {
		t.Errorf("Child() on a parent ID error = %v, wantErr %v", err, user.ErrNotFound)
	}
	got, err := svc.Child(ctx, parent.ID, child.ID)
	if err != nil {
		t.Fatalf("Child() failed, %v", err)
	}
	if got.ID != child.ID {
		t.Errorf("Child() ID = %s, want %s", got.ID, child.ID)
	}

	children, err := svc.Children(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Children() failed, %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("len(children) = %d, want 1", len(children))
	}

	// partial update keeps unset fields
	updated, err := svc.UpdateChild(ctx, parent.ID, child.ID, user.UpdateChild{Cohort: 4})
	if err != nil {
		t.Fatalf("UpdateChild() failed, %v", err)
	}
	if updated.Cohort != 4 {
		t.Errorf("Cohort = %d, want 4", updated.Cohort)
	}
	if updated.Name != child.Name {
		t.Errorf("Name = %s, want %s", updated.Name, child.Name)
	}
	if updated.Emoji != child.Emoji {
		t.Errorf("Emoji = %s, want %s", updated.Emoji, child.Emoji)
	}
}

func TestService_ChildDeletionOTP(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := registerParent(t, svc, "jane@test.cd")
	child := createChild(t, svc, parent.ID)

	emailsvc.SentMessages = emailsvc.SentMessages[:0]
	if err := svc.RequestChildDeletion(ctx, parent.ID, child.ID); err != nil {
		t.Fatalf("RequestChildDeletion() failed, %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	match := otpRegex.FindStringSubmatch(emailsvc.SentMessages[0].BodyStr)
	if match == nil {
		t.Fatalf("no OTP in email body %q", emailsvc.SentMessages[0].BodyStr)
	}
	code := match[1]

	wrongCode := "000000"
	if code == wrongCode {
		wrongCode = "111111"
	}
	if err := svc.ConfirmChildDeletion(ctx, parent.ID, child.ID, wrongCode); err != user.ErrInvalidOTP {
		t.Errorf("ConfirmChildDeletion() error = %v, wantErr %v", err, user.ErrInvalidOTP)
	}
	if err := svc.ConfirmChildDeletion(ctx, parent.ID, child.ID, ""); err != user.ErrInvalidOTP {
		t.Errorf("ConfirmChildDeletion() error = %v, wantErr %v", err, user.ErrInvalidOTP)
	}

	// a code past its deadline no longer verifies
	user.NowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := svc.ConfirmChildDeletion(ctx, parent.ID, child.ID, code); err != user.ErrOTPExpired {
		t.Errorf("ConfirmChildDeletion() error = %v, wantErr %v", err, user.ErrOTPExpired)
	}
	user.NowFunc = time.Now // reset

	if err := svc.ConfirmChildDeletion(ctx, parent.ID, child.ID, code); err != nil {
		t.Fatalf("ConfirmChildDeletion() failed, %v", err)
	}
	if _, err := svc.Child(ctx, parent.ID, child.ID); err != user.ErrNotFound {
		t.Errorf("Child() after deletion error = %v, wantErr %v", err, user.ErrNotFound)
	}

	// the OTP is single-use
	child2 := createChild(t, svc, parent.ID)
	if err := svc.ConfirmChildDeletion(ctx, parent.ID, child2.ID, code); err != user.ErrInvalidOTP {
		t.Errorf("ConfirmChildDeletion() reused code error = %v, wantErr %v", err, user.ErrInvalidOTP)
	}
}

func TestService_ActivateSubscription(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := registerParent(t, svc, "jane@test.cd")

	if _, err := svc.ActivateSubscription(ctx, parent.ID, user.SubscriptionPlan("weekly")); err != user.ErrInvalidPlan {
		t.Errorf("ActivateSubscription() error = %v, wantErr %v", err, user.ErrInvalidPlan)
	}

	sub, err := svc.ActivateSubscription(ctx, parent.ID, user.PlanMonthly)
	if err != nil {
		t.Fatalf("ActivateSubscription() failed, %v", err)
	}
	if !sub.IsActive() {
		t.Error("subscription is not active")
	}
	if want := sub.StartedAt.AddDate(0, 1, 0); !sub.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sub.ExpiresAt, want)
	}

	sub, err = svc.ActivateSubscription(ctx, parent.ID, user.PlanYearly)
	if err != nil {
		t.Fatalf("ActivateSubscription() failed, %v", err)
	}
	if want := sub.StartedAt.AddDate(1, 0, 0); !sub.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", sub.ExpiresAt, want)
	}

	got, err := svc.Subscription(ctx, parent.ID)
	if err != nil {
		t.Fatalf("Subscription() failed, %v", err)
	}
	if got.Plan != user.PlanYearly {
		t.Errorf("Plan = %s, want %s", got.Plan, user.PlanYearly)
	}
}
