// Command loginflow-sim replays the login, password reset and registration
// timelines on a virtual clock and prints every hand-off with its offset.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/MrEthical07/loginflow"
	"github.com/MrEthical07/loginflow/handoff"
	"github.com/MrEthical07/loginflow/internal/stores"
	"github.com/MrEthical07/loginflow/password"
	"github.com/MrEthical07/loginflow/scheduler"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type scenario func(ctx context.Context, e *loginflow.Engine, clock *scheduler.Virtual) error

var scenarios = map[string]scenario{
	"login":        runLogin,
	"reset":        runPasswordReset,
	"registration": runRegistration,
}

func main() {
	var (
		name      = flag.String("scenario", "all", "scenario to replay: login, reset, registration or all")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		asJSON    = flag.Bool("json", false, "print events as JSON lines")
	)
	flag.Parse()

	names := []string{*name}
	if *name == "all" {
		names = names[:0]
		for n := range scenarios {
			names = append(names, n)
		}
		sort.Strings(names)
	}
	for _, n := range names {
		if _, ok := scenarios[n]; !ok {
			fmt.Fprintf(os.Stderr, "unknown scenario %q\n", n)
			os.Exit(2)
		}
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		defer mr.Close()
		addr = mr.Addr()
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	defer func() { _ = client.Close() }()

	for _, n := range names {
		if err := replay(n, scenarios[n], client, *asJSON); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", n, err)
			os.Exit(1)
		}
	}
}

func replay(name string, run scenario, client redis.UniversalClient, asJSON bool) error {
	ctx := context.Background()
	start := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	clock := scheduler.NewVirtual(start)
	rec := handoff.NewRecorder(clock.Now)

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	accounts := stores.NewAccountStore(client, "sim:"+name, hasher, clock.Now)

	cfg := loginflow.DefaultConfig()
	cfg.Session.RedisPrefix = "sim:" + name
	engine, err := loginflow.New().
		WithConfig(cfg).
		WithRedis(client).
		WithScheduler(clock).
		WithNavigator(rec).
		WithNotifier(rec).
		WithRegistrar(handoff.RegistrarFunc(func(ctx context.Context, email, pw string) error {
			if err := accounts.Register(ctx, email, pw); err != nil {
				return err
			}
			return rec.Register(ctx, email, pw)
		})).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := run(ctx, engine, clock); err != nil {
		return err
	}

	if !asJSON {
		fmt.Printf("---- %s ----\n", name)
	}
	for _, ev := range rec.Events() {
		printEvent(name, ev, ev.At.Sub(start), asJSON)
	}
	if dob := engine.RegistrationState().DOB; dob != nil && !asJSON {
		fmt.Printf("%8s  dob       %s\n", "", dob.Time().Format("2006-01-02"))
	}
	return nil
}

func runLogin(ctx context.Context, e *loginflow.Engine, clock *scheduler.Virtual) error {
	_ = e.Login(ctx, "alice", "short")
	clock.Advance(time.Second)
	if err := e.Login(ctx, "alice", "password123"); err != nil {
		return err
	}
	clock.Advance(61 * time.Second)
	return nil
}

func runPasswordReset(ctx context.Context, e *loginflow.Engine, clock *scheduler.Virtual) error {
	if err := e.OpenPasswordReset(); err != nil {
		return err
	}
	if err := e.SubmitPasswordReset(ctx, "newpassword1", "newpassword1"); err != nil {
		return err
	}
	clock.Advance(5 * time.Second)
	return nil
}

func runRegistration(ctx context.Context, e *loginflow.Engine, clock *scheduler.Virtual) error {
	fields := loginflow.RegistrationFields{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		DOB:             &loginflow.BirthDate{Day: 15, Month: time.June, Year: 1990},
	}
	if err := e.BeginRegistration(); err != nil {
		return err
	}
	if err := e.UpdateRegistration(fields); err != nil {
		return err
	}
	// Walk the selector the way a user would: 31 first, then a shorter month.
	if err := e.SelectBirthDay(31); err != nil {
		return err
	}
	if err := e.SelectBirthMonth(time.April); err != nil {
		return err
	}
	fields.DOB = e.RegistrationState().DOB
	if err := e.OpenEmailVerification(); err != nil {
		return err
	}
	if err := e.SubmitOTP(ctx, "123456"); err != nil {
		return err
	}
	clock.Advance(3 * time.Second)
	if err := e.SubmitRegistration(ctx, fields); err != nil {
		return err
	}
	clock.Advance(5 * time.Second)
	return nil
}

func printEvent(scenario string, ev handoff.Event, offset time.Duration, asJSON bool) {
	if asJSON {
		line, _ := json.Marshal(struct {
			Scenario string        `json:"scenario"`
			OffsetMs int64         `json:"offset_ms"`
			Event    handoff.Event `json:"event"`
		}{scenario, offset.Milliseconds(), ev})
		fmt.Println(string(line))
		return
	}

	switch ev.Type {
	case handoff.EventNavigate:
		fmt.Printf("%8s  navigate  %s\n", offset, ev.Route)
	case handoff.EventNotice:
		fmt.Printf("%8s  notice    [%s] %q for %s\n", offset, ev.Kind, ev.Message, ev.Duration)
	case handoff.EventRegister:
		fmt.Printf("%8s  register  %s\n", offset, ev.Email)
	}
}
