package stores

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/loginflow/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestAccountStore(t *testing.T) (*AccountStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hasher, err := password.NewArgon2(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	now := func() time.Time { return time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC) }
	return NewAccountStore(client, "", hasher, now), mr
}

func TestAccountStoreRegisterAndVerify(t *testing.T) {
	store, mr := newTestAccountStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "New@Example.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !mr.Exists("acct:new@example.com") {
		t.Fatalf("expected lower-cased key, have %v", mr.Keys())
	}

	raw, _ := mr.Get("acct:new@example.com")
	if strings.Contains(raw, "password123") {
		t.Fatal("plaintext password persisted")
	}

	record, err := store.Get(ctx, "new@example.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Email != "New@Example.com" || !strings.HasPrefix(record.PasswordHash, "$argon2id$") {
		t.Fatalf("unexpected record %+v", record)
	}
	if record.RegisteredAt != time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC).UnixMilli() {
		t.Fatalf("unexpected registration time %d", record.RegisteredAt)
	}

	ok, err := store.Verify(ctx, "new@example.com", "password123")
	if err != nil || !ok {
		t.Fatalf("Verify failed: ok=%v err=%v", ok, err)
	}
	ok, err = store.Verify(ctx, "new@example.com", "password124")
	if err != nil || ok {
		t.Fatalf("wrong password verified: ok=%v err=%v", ok, err)
	}
}

func TestAccountStoreRejectsDuplicate(t *testing.T) {
	store, _ := newTestAccountStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "dup@example.com", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := store.Register(ctx, "DUP@example.com", "password456"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountStoreNotFound(t *testing.T) {
	store, _ := newTestAccountStore(t)

	if _, err := store.Get(context.Background(), "missing@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStoreRedisDown(t *testing.T) {
	store, mr := newTestAccountStore(t)
	mr.Close()

	err := store.Register(context.Background(), "down@example.com", "password123")
	if !errors.Is(err, ErrAccountRedisUnavailable) {
		t.Fatalf("expected ErrAccountRedisUnavailable, got %v", err)
	}
}

func TestAccountStoreShortPassword(t *testing.T) {
	store, _ := newTestAccountStore(t)

	if err := store.Register(context.Background(), "short@example.com", "short"); !errors.Is(err, password.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestAccountRecordRoundTrip(t *testing.T) {
	in := &AccountRecord{Email: "a@b.co", PasswordHash: "$argon2id$x", RegisteredAt: 42}
	data, err := encodeAccountRecord(in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	out, err := decodeAccountRecord(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch: %+v != %+v", out, in)
	}

	data[0] = 9
	if _, err := decodeAccountRecord(data); err == nil {
		t.Fatal("expected version error")
	}
}
