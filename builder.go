package loginflow

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/loginflow/credential"
	"github.com/MrEthical07/loginflow/handoff"
	internalaudit "github.com/MrEthical07/loginflow/internal/audit"
	"github.com/MrEthical07/loginflow/registration"
	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/MrEthical07/loginflow/session"
	"github.com/MrEthical07/loginflow/workflow"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store
	sched  scheduler.Scheduler
	logger *slog.Logger

	navigator Navigator
	notifier  Notifier
	registrar Registrar
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis persists the session in Redis under Config.Session.RedisPrefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore persists the session in store. It takes precedence over
// WithRedis.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithScheduler sets the clock every timer runs on. The default is
// scheduler.NewReal().
func (b *Builder) WithScheduler(s scheduler.Scheduler) *Builder {
	b.sched = s
	return b
}

// WithLogger sets the structured logger. The default is slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithRegistrar sets the backend that receives completed registrations.
func (b *Builder) WithRegistrar(r Registrar) *Builder {
	b.registrar = r
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// The sink only receives events when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build validates the configuration and wires every component. It performs
// no I/O; call Engine.Init to resume a persisted session.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session store required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	sched := b.sched
	if sched == nil {
		sched = scheduler.NewReal()
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	var navigator Navigator = handoff.Discard{}
	if b.navigator != nil {
		navigator = b.navigator
	}
	var notifier Notifier = handoff.Discard{}
	if b.notifier != nil {
		notifier = b.notifier
	}

	engine := &Engine{
		config:    cfg,
		sched:     sched,
		logger:    logger,
		store:     store,
		navigator: navigator,
		notifier:  notifier,
		validate:  credential.NewValidator(),
	}
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Now:        sched.Now,
	}, b.auditSink)

	engine.sessions = session.NewManager(store, sched, session.Config{
		TTL:          cfg.Session.TTL,
		TickInterval: cfg.Session.TickInterval,
	}, session.Hooks{
		OnExpire: engine.onSessionExpired,
	}, logger.With("component", "session"))

	resetSpec := workflow.PasswordResetSpec()
	resetSpec.Delay = cfg.PasswordReset.Delay
	resetSpec.AutoCloseDelay = cfg.PasswordReset.AutoCloseDelay
	engine.reset = workflow.New(resetSpec, sched, workflow.Hooks{
		OnTransition: engine.onPasswordResetState,
		OnSuccess:    engine.onPasswordReset,
	})
	engine.reset.Close()

	otpSpec := workflow.OTPSpec()
	otpSpec.Delay = cfg.EmailVerification.Delay
	otpSpec.AutoCloseDelay = cfg.EmailVerification.AutoCloseDelay
	engine.registration = registration.New(sched, registration.Config{
		CompletionDelay: cfg.Registration.CompletionDelay,
		RedirectDelay:   cfg.Registration.RedirectDelay,
		Verification:    otpSpec,
		MinBirthYear:    cfg.Registration.MinBirthYear,
	}, registration.Deps{
		Registrar: b.registrar,
		Notifier:  engine.notifier,
		Navigator: engine.navigator,
		Validator: engine.validate,
		Logger:    logger.With("component", "registration"),
	}, registration.Hooks{
		OnStateChange: engine.onRegistrationState,
		OnVerified:    engine.onEmailVerified,
		OnRegistered:  engine.onRegistered,
	})

	b.built = true

	return engine, nil
}
