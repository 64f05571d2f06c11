package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/handoff"
	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/MrEthical07/loginflow/workflow"
)

var epoch = time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

type passwordCapture struct {
	*handoff.Recorder
	passwords []string
}

func (p *passwordCapture) Register(ctx context.Context, email, password string) error {
	p.passwords = append(p.passwords, password)
	return p.Recorder.Register(ctx, email, password)
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *scheduler.Virtual, *passwordCapture) {
	t.Helper()
	clock := scheduler.NewVirtual(epoch)
	rec := &passwordCapture{Recorder: handoff.NewRecorder(clock.Now)}
	o := New(clock, Config{}, Deps{Registrar: rec, Notifier: rec, Navigator: rec}, Hooks{})
	return o, clock, rec
}

func validFields() Fields {
	dob := DefaultBirthDate().WithYear(1995)
	return Fields{
		Username:        "jane_doe",
		Email:           "jane@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		DOB:             &dob,
	}
}

func verify(t *testing.T, o *Orchestrator, clock *scheduler.Virtual) {
	t.Helper()
	if err := o.OpenVerification(); err != nil {
		t.Fatalf("OpenVerification failed: %v", err)
	}
	if err := o.SubmitOTP("123456"); err != nil {
		t.Fatalf("SubmitOTP failed: %v", err)
	}
	clock.Advance(2 * time.Second)
	if !o.Snapshot().EmailVerified {
		t.Fatal("email should be verified after 2000ms")
	}
}

func TestSubmitRejectsUnverifiedEmail(t *testing.T) {
	o, clock, rec := newTestOrchestrator(t)
	if err := o.Apply(validFields()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := o.Submit(context.Background()); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("Submit err = %v, want ErrEmailNotVerified", err)
	}
	if o.State() != Editing {
		t.Fatalf("state = %s, want editing", o.State())
	}
	if clock.Pending() != 0 {
		t.Fatal("gate rejection must not start a timer")
	}
	clock.Advance(10 * time.Second)
	if len(rec.Events()) != 0 {
		t.Fatalf("unexpected hand-offs %v", rec.Events())
	}
}

func TestRegistrationTimeline(t *testing.T) {
	o, clock, rec := newTestOrchestrator(t)
	o.Apply(validFields())
	verify(t, o, clock)
	clock.Advance(time.Second)
	if !o.Verification().Closed {
		t.Fatal("verification dialog should auto-close after 1000ms")
	}

	start := clock.Now()
	if err := o.Submit(context.Background()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if o.State() != Submitting {
		t.Fatalf("state = %s, want submitting", o.State())
	}
	if err := o.Submit(context.Background()); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("second Submit err = %v", err)
	}

	clock.Advance(1999 * time.Millisecond)
	if len(rec.Filter(handoff.EventRegister)) != 0 {
		t.Fatal("registrar called before the completion delay")
	}
	clock.Advance(time.Millisecond)

	regs := rec.Filter(handoff.EventRegister)
	if len(regs) != 1 || regs[0].Email != "jane@example.com" || !regs[0].At.Equal(start.Add(2*time.Second)) {
		t.Fatalf("unexpected registrar events %+v", regs)
	}
	if len(rec.passwords) != 1 || rec.passwords[0] != "password123" {
		t.Fatalf("registrar got passwords %v", rec.passwords)
	}
	notices := rec.Filter(handoff.EventNotice)
	if len(notices) != 1 || notices[0].Kind != handoff.NoticeSuccess || notices[0].Message != SuccessMessage {
		t.Fatalf("unexpected notices %+v", notices)
	}
	if o.State() != Completed {
		t.Fatalf("state = %s, want completed", o.State())
	}
	if len(rec.Filter(handoff.EventNavigate)) != 0 {
		t.Fatal("navigation fired early")
	}

	clock.Advance(2 * time.Second)
	nav := rec.Filter(handoff.EventNavigate)
	if len(nav) != 1 || nav[0].Route != handoff.RouteLogin || !nav[0].At.Equal(start.Add(4*time.Second)) {
		t.Fatalf("unexpected navigation %+v", nav)
	}
	if err := o.SetUsername("other"); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("edit after completion err = %v", err)
	}
	if clock.Pending() != 0 {
		t.Fatalf("%d timers left", clock.Pending())
	}
}

func TestEmailEditInvalidatesVerification(t *testing.T) {
	o, clock, _ := newTestOrchestrator(t)
	o.Apply(validFields())
	verify(t, o, clock)

	o.SetEmail("jane2@example.com")
	if o.Snapshot().EmailVerified {
		t.Fatal("email edit must drop verification")
	}
	if err := o.Submit(context.Background()); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("Submit err = %v, want ErrEmailNotVerified", err)
	}

	// Switching back does not restore the earlier result.
	o.SetEmail("jane@example.com")
	if err := o.Submit(context.Background()); !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("Submit err = %v, want ErrEmailNotVerified", err)
	}
}

func TestEmailEditDuringVerificationDiscardsCode(t *testing.T) {
	o, clock, _ := newTestOrchestrator(t)
	o.Apply(validFields())
	o.OpenVerification()
	o.SubmitOTP("123456")

	clock.Advance(time.Second)
	o.SetEmail("other@example.com")
	clock.Advance(5 * time.Second)

	if o.Snapshot().EmailVerified {
		t.Fatal("a code for the previous email must not verify the new one")
	}
}

func TestValidationOrder(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	cases := []struct {
		name   string
		mutate func(*Fields)
		field  string
		want   error
	}{
		{"username", func(f *Fields) { f.Username = "x"; f.Email = "bad" }, "username", credential.ErrValidationFailed},
		{"email", func(f *Fields) { f.Email = "bad"; f.Password = "short" }, "email", credential.ErrValidationFailed},
		{"password", func(f *Fields) { f.Password = "short"; f.ConfirmPassword = "other" }, "password", credential.ErrValidationFailed},
		{"mismatch", func(f *Fields) { f.ConfirmPassword = "password124"; f.DOB = nil }, "", credential.ErrPasswordMismatch},
		{"dob missing", func(f *Fields) { f.DOB = nil }, "dob", credential.ErrValidationFailed},
		{"dob range", func(f *Fields) { f.DOB = &BirthDate{Day: 1, Month: time.January, Year: 1899} }, "dob", credential.ErrValidationFailed},
		{"dob future", func(f *Fields) { f.DOB = &BirthDate{Day: 1, Month: time.January, Year: 2026} }, "dob", credential.ErrValidationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o.Begin()
			f := validFields()
			tc.mutate(&f)
			o.Apply(f)

			err := o.Submit(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("Submit err = %v, want %v", err, tc.want)
			}
			if field, _ := credential.FieldOf(err); field != tc.field {
				t.Fatalf("field = %q, want %q", field, tc.field)
			}
			if o.State() != Editing {
				t.Fatalf("state = %s", o.State())
			}
		})
	}
}

func TestMalformedOTP(t *testing.T) {
	o, clock, _ := newTestOrchestrator(t)
	o.Apply(validFields())

	if err := o.SubmitOTP("123456"); !errors.Is(err, ErrVerificationUnavailable) {
		t.Fatalf("SubmitOTP before open err = %v", err)
	}
	o.OpenVerification()
	if err := o.SubmitOTP("12a456"); !errors.Is(err, credential.ErrMalformedOTP) {
		t.Fatalf("SubmitOTP err = %v", err)
	}
	if o.Verification().State != workflow.Failed || clock.Pending() != 0 {
		t.Fatal("malformed code must fail without a timer")
	}
}

func TestOpenVerificationRequiresEmail(t *testing.T) {
	o, clock, _ := newTestOrchestrator(t)
	o.SetEmail("not-an-email")

	err := o.OpenVerification()
	if field, ok := credential.FieldOf(err); !ok || field != "email" {
		t.Fatalf("OpenVerification err = %v", err)
	}

	f := validFields()
	o.Apply(f)
	verify(t, o, clock)
	if err := o.OpenVerification(); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("OpenVerification after success err = %v", err)
	}
}

func TestBeginCancelsPendingCompletion(t *testing.T) {
	o, clock, rec := newTestOrchestrator(t)
	o.Apply(validFields())
	verify(t, o, clock)
	first := o.ID()

	o.Submit(context.Background())
	o.Begin()
	clock.Advance(10 * time.Second)

	if len(rec.Filter(handoff.EventRegister)) != 0 {
		t.Fatal("abandoned attempt reached the registrar")
	}
	if o.ID() == first || o.State() != Editing {
		t.Fatal("Begin should start a fresh attempt")
	}
	if snap := o.Snapshot(); snap.Email != "" || snap.EmailVerified {
		t.Fatalf("fresh attempt carried state over: %+v", snap)
	}
}

func TestRegistrarFailureDoesNotBlockCompletion(t *testing.T) {
	clock := scheduler.NewVirtual(epoch)
	rec := handoff.NewRecorder(clock.Now)
	var gotErr error
	failing := handoff.RegistrarFunc(func(context.Context, string, string) error {
		return errors.New("backend down")
	})
	o := New(clock, Config{}, Deps{Registrar: failing, Notifier: rec, Navigator: rec}, Hooks{
		OnRegistered: func(_, _ string, err error) { gotErr = err },
	})
	o.Apply(validFields())
	verify(t, o, clock)

	o.Submit(context.Background())
	clock.Advance(4 * time.Second)

	if o.State() != Completed || len(rec.Filter(handoff.EventNavigate)) != 1 {
		t.Fatalf("state=%s events=%+v", o.State(), rec.Events())
	}
	if gotErr == nil {
		t.Fatal("OnRegistered should receive the registrar error")
	}
}

func TestBirthDateSelectorClamps(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	o.SelectBirthDay(31)
	o.SelectBirthMonth(time.February)
	if dob := o.Snapshot().DOB; dob == nil || dob.Day != 29 || dob.Year != 2000 {
		t.Fatalf("expected 29 Feb 2000, got %+v", dob)
	}
	o.SelectBirthYear(2001)
	if dob := o.Snapshot().DOB; dob.Day != 28 {
		t.Fatalf("expected 28 Feb 2001, got %+v", dob)
	}
}

func TestApplyClampsBirthDay(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)

	f := validFields()
	f.DOB = &BirthDate{Day: 31, Month: time.April, Year: 1990}
	if err := o.Apply(f); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if f.DOB.Day != 31 {
		t.Fatal("Apply must not modify the caller's date")
	}
	dob := o.Snapshot().DOB
	if dob == nil || dob.Day != 30 || !dob.Selected {
		t.Fatalf("expected 30 April, got %+v", dob)
	}
	if !dob.Valid(MinBirthYear, epoch.Year()) {
		t.Fatalf("clamped date should be valid: %+v", dob)
	}

	f.DOB = &BirthDate{Day: 5, Month: 13, Year: 1990}
	if err := o.Apply(f); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if dob := o.Snapshot().DOB; dob.Day != 5 || dob.Month != 13 {
		t.Fatalf("unknown month must be left for validation, got %+v", dob)
	}
}

func TestBirthDateDefaults(t *testing.T) {
	b := DefaultBirthDate()
	if b.Day != 1 || b.Month != time.January || b.Year != 2000 || b.Selected {
		t.Fatalf("unexpected default %+v", b)
	}
	if got := b.WithMonth(time.April).WithDay(31); got.Day != 30 {
		t.Fatalf("WithDay(31) in April = %d", got.Day)
	}
	years := Years(epoch)
	if years[0] != 2025 || years[len(years)-1] != MinBirthYear {
		t.Fatalf("unexpected year range %d..%d", years[0], years[len(years)-1])
	}
}
