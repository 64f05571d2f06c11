// Package registration sequences one registration attempt: field edits,
// the email OTP gate, the delayed completion and the hand-off back to the
// login route.
//
// An attempt moves Editing → Submitting → Completed. Submit only leaves
// Editing when every field rule passes and the current email has been
// verified. Completion hands the credentials to a [handoff.Registrar],
// shows a success notice and navigates to the login route after a further
// delay.
package registration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/handoff"
	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/MrEthical07/loginflow/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SuccessMessage is the notice shown when an attempt completes.
const SuccessMessage = "Successfully registered."

const (
	DefaultCompletionDelay = 2 * time.Second
	DefaultRedirectDelay   = 2 * time.Second
)

// State is the submission state of an attempt.
type State uint8

const (
	Editing State = iota
	Submitting
	Completed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config tunes an Orchestrator. Zero values fall back to the defaults.
type Config struct {
	CompletionDelay time.Duration
	RedirectDelay   time.Duration
	Verification    workflow.Spec
	MinBirthYear    int
}

// Deps are the collaborators an Orchestrator hands control to. Nil members
// are replaced with no-ops.
type Deps struct {
	Registrar handoff.Registrar
	Notifier  handoff.Notifier
	Navigator handoff.Navigator
	Validator *validator.Validate
	Logger    *slog.Logger
}

// Hooks observe an Orchestrator. They run without its lock held.
type Hooks struct {
	OnStateChange func(attemptID string, from, to State)
	OnVerified    func(attemptID, email string)
	OnRegistered  func(attemptID, email string, err error)
}

// Snapshot is a read-only view of the current attempt. Passwords are never
// included.
type Snapshot struct {
	ID            string            `json:"id"`
	State         State             `json:"state"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	DOB           *BirthDate        `json:"dob,omitempty"`
	EmailVerified bool              `json:"emailVerified"`
	Verification  workflow.Snapshot `json:"verification"`
}

// Orchestrator owns one registration attempt at a time. It is safe for
// concurrent use.
type Orchestrator struct {
	cfg      Config
	sched    scheduler.Scheduler
	deps     Deps
	hooks    Hooks
	validate *validator.Validate
	otp      *workflow.Process

	mu            sync.Mutex
	id            string
	state         State
	fields        Fields
	emailVerified bool
	verifying     string
	pending       scheduler.Handle
	gen           uint64
}

// New returns an Orchestrator with a fresh attempt in Editing.
func New(sched scheduler.Scheduler, cfg Config, deps Deps, hooks Hooks) *Orchestrator {
	if cfg.CompletionDelay <= 0 {
		cfg.CompletionDelay = DefaultCompletionDelay
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	if cfg.Verification.Name == "" {
		cfg.Verification = workflow.OTPSpec()
	}
	if cfg.MinBirthYear <= 0 {
		cfg.MinBirthYear = MinBirthYear
	}
	if deps.Registrar == nil {
		deps.Registrar = handoff.Discard{}
	}
	if deps.Notifier == nil {
		deps.Notifier = handoff.Discard{}
	}
	if deps.Navigator == nil {
		deps.Navigator = handoff.Discard{}
	}
	if deps.Validator == nil {
		deps.Validator = credential.NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	o := &Orchestrator{
		cfg:      cfg,
		sched:    sched,
		deps:     deps,
		hooks:    hooks,
		validate: deps.Validator,
	}
	o.otp = workflow.New(cfg.Verification, sched, workflow.Hooks{
		OnSuccess: o.verified,
	})
	o.Begin()
	return o
}

// Begin discards the current attempt, cancelling anything pending, and
// starts a fresh one.
func (o *Orchestrator) Begin() {
	o.otp.Close()

	o.mu.Lock()
	o.cancelLocked()
	o.id = uuid.NewString()
	o.state = Editing
	o.fields = Fields{}
	o.emailVerified = false
	o.verifying = ""
	o.mu.Unlock()
}

// ID returns the current attempt id.
func (o *Orchestrator) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

// State returns the current submission state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Apply replaces every field at once. An email different from the current
// one drops any verification. A day past the end of the chosen month is
// pulled back to its last day, as the selector does.
func (o *Orchestrator) Apply(f Fields) error {
	return o.edit(func(cur *Fields) {
		if f.DOB != nil {
			f.DOB = ptr(f.DOB.clamped())
		}
		*cur = f
	})
}

func (o *Orchestrator) SetUsername(v string) error {
	return o.edit(func(f *Fields) { f.Username = v })
}

// SetEmail changes the email. Verification is tied to the exact value, so
// any change requires verifying again.
func (o *Orchestrator) SetEmail(v string) error {
	return o.edit(func(f *Fields) { f.Email = v })
}

func (o *Orchestrator) SetPassword(v string) error {
	return o.edit(func(f *Fields) { f.Password = v })
}

func (o *Orchestrator) SetConfirmPassword(v string) error {
	return o.edit(func(f *Fields) { f.ConfirmPassword = v })
}

// SelectBirthDay, SelectBirthMonth and SelectBirthYear drive the date
// selector. The first pick makes the date present.
func (o *Orchestrator) SelectBirthDay(day int) error {
	return o.edit(func(f *Fields) { f.DOB = ptr(birthOrDefault(f.DOB).WithDay(day)) })
}

func (o *Orchestrator) SelectBirthMonth(month time.Month) error {
	return o.edit(func(f *Fields) { f.DOB = ptr(birthOrDefault(f.DOB).WithMonth(month)) })
}

func (o *Orchestrator) SelectBirthYear(year int) error {
	return o.edit(func(f *Fields) { f.DOB = ptr(birthOrDefault(f.DOB).WithYear(year)) })
}

func (o *Orchestrator) edit(apply func(*Fields)) error {
	o.mu.Lock()
	if err := o.editableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	prev := o.fields.Email
	apply(&o.fields)
	changed := o.fields.Email != prev
	if changed {
		o.emailVerified = false
		o.verifying = ""
	}
	o.mu.Unlock()

	if changed {
		o.otp.Close()
	}
	return nil
}

// OpenVerification opens the OTP dialog for the current email, resetting
// any previous verification process.
func (o *Orchestrator) OpenVerification() error {
	o.mu.Lock()
	if err := o.editableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	if o.emailVerified {
		o.mu.Unlock()
		return ErrAlreadyVerified
	}
	if !credential.IsEmail(o.fields.Email) {
		o.mu.Unlock()
		return &credential.FieldError{Field: "email", Rule: credential.TagEmail}
	}
	o.verifying = o.fields.Email
	o.mu.Unlock()

	o.otp.Reset()
	return nil
}

// SubmitOTP submits a code to the open verification dialog. A code that is
// not six digits fails immediately with credential.ErrMalformedOTP.
func (o *Orchestrator) SubmitOTP(code string) error {
	o.mu.Lock()
	if err := o.editableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	err := o.otp.Submit(code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, workflow.ErrRejected):
		return credential.ErrMalformedOTP
	case errors.Is(err, workflow.ErrBusy):
		return ErrSubmissionInProgress
	case errors.Is(err, workflow.ErrCompleted):
		return ErrAlreadyVerified
	case errors.Is(err, workflow.ErrClosed):
		return ErrVerificationUnavailable
	default:
		return err
	}
}

// CloseVerification dismisses the OTP dialog. A code still in flight is
// discarded.
func (o *Orchestrator) CloseVerification() {
	o.otp.Close()
}

// Verification returns the OTP dialog state.
func (o *Orchestrator) Verification() workflow.Snapshot {
	return o.otp.Snapshot()
}

func (o *Orchestrator) verified(_ string, _ string) {
	o.mu.Lock()
	if o.state != Editing || o.verifying == "" || o.verifying != o.fields.Email {
		o.mu.Unlock()
		return
	}
	o.emailVerified = true
	id, email := o.id, o.fields.Email
	o.mu.Unlock()

	if o.hooks.OnVerified != nil {
		o.hooks.OnVerified(id, email)
	}
}

// Submit validates the form and, when the email is verified, starts the
// delayed completion. Field errors are reported before the gate.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if err := o.editableLocked(); err != nil {
		o.mu.Unlock()
		return err
	}
	if err := Validate(o.validate, o.fields, o.cfg.MinBirthYear, o.sched.Now().Year()); err != nil {
		o.mu.Unlock()
		return err
	}
	if !o.emailVerified {
		o.mu.Unlock()
		return ErrEmailNotVerified
	}

	o.state = Submitting
	o.gen++
	gen, id := o.gen, o.id
	ctx = context.WithoutCancel(ctx)
	o.pending = o.sched.ScheduleOnce(o.cfg.CompletionDelay, func() { o.complete(ctx, gen) })
	o.mu.Unlock()

	o.stateChanged(id, Editing, Submitting)
	return nil
}

func (o *Orchestrator) complete(ctx context.Context, gen uint64) {
	o.mu.Lock()
	if gen != o.gen || o.state != Submitting {
		o.mu.Unlock()
		return
	}
	id, email, password := o.id, o.fields.Email, o.fields.Password
	o.mu.Unlock()

	err := o.deps.Registrar.Register(ctx, email, password)
	if err != nil {
		o.deps.Logger.Warn("registrar hand-off failed", "attempt", id, "err", err)
	}
	o.deps.Notifier.ShowTransient(handoff.NoticeSuccess, SuccessMessage, o.cfg.RedirectDelay)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.state = Completed
	o.fields.Password = ""
	o.fields.ConfirmPassword = ""
	o.pending = o.sched.ScheduleOnce(o.cfg.RedirectDelay, func() { o.redirect(gen) })
	o.mu.Unlock()

	o.stateChanged(id, Submitting, Completed)
	if o.hooks.OnRegistered != nil {
		o.hooks.OnRegistered(id, email, err)
	}
}

func (o *Orchestrator) redirect(gen uint64) {
	o.mu.Lock()
	if gen != o.gen || o.state != Completed {
		o.mu.Unlock()
		return
	}
	o.pending = nil
	o.mu.Unlock()

	o.deps.Navigator.GoTo(handoff.RouteLogin)
}

// Snapshot returns the current attempt for rendering.
func (o *Orchestrator) Snapshot() Snapshot {
	verification := o.otp.Snapshot()

	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{
		ID:            o.id,
		State:         o.state,
		Username:      o.fields.Username,
		Email:         o.fields.Email,
		EmailVerified: o.emailVerified,
		Verification:  verification,
	}
	if o.fields.DOB != nil {
		s.DOB = ptr(*o.fields.DOB)
	}
	return s
}

// Teardown cancels every pending timer of the attempt.
func (o *Orchestrator) Teardown() {
	o.otp.Close()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked()
}

func (o *Orchestrator) editableLocked() error {
	switch o.state {
	case Submitting:
		return ErrSubmissionInProgress
	case Completed:
		return ErrAttemptCompleted
	}
	return nil
}

func (o *Orchestrator) cancelLocked() {
	o.gen++
	scheduler.Cancel(o.pending)
	o.pending = nil
}

func (o *Orchestrator) stateChanged(id string, from, to State) {
	if o.hooks.OnStateChange != nil {
		o.hooks.OnStateChange(id, from, to)
	}
}

func birthOrDefault(b *BirthDate) BirthDate {
	if b == nil {
		return DefaultBirthDate()
	}
	return *b
}

func ptr[T any](v T) *T {
	return &v
}
