package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrEthical07/loginflow/password"
	"github.com/redis/go-redis/v9"
)

const (
	accountRecordVersionV1 = 1
)

var (
	ErrAccountExists           = errors.New("account already exists")
	ErrAccountNotFound         = errors.New("account not found")
	ErrAccountRedisUnavailable = errors.New("account redis unavailable")
)

// AccountRecord is one registered account. PasswordHash is a PHC string.
type AccountRecord struct {
	Email        string
	PasswordHash string
	RegisteredAt int64
}

// AccountStore persists registered accounts in Redis. It is the default
// registrar of the demo server and the simulator.
type AccountStore struct {
	redis  redis.UniversalClient
	prefix string
	hasher *password.Argon2
	now    func() time.Time
}

// NewAccountStore returns an AccountStore keyed under prefix ("acct" when
// empty). A nil now uses time.Now.
func NewAccountStore(redisClient redis.UniversalClient, prefix string, hasher *password.Argon2, now func() time.Time) *AccountStore {
	if prefix == "" {
		prefix = "acct"
	}
	if now == nil {
		now = time.Now
	}
	return &AccountStore{
		redis:  redisClient,
		prefix: prefix,
		hasher: hasher,
		now:    now,
	}
}

func (s *AccountStore) key(email string) string {
	return s.prefix + ":" + strings.ToLower(email)
}

// Register hashes password and stores the account. An email registered
// before returns ErrAccountExists; emails compare case-insensitively.
func (s *AccountStore) Register(ctx context.Context, email, plaintext string) error {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	encoded, err := encodeAccountRecord(&AccountRecord{
		Email:        email,
		PasswordHash: hash,
		RegisteredAt: s.now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	const maxRetries = 4
	key := s.key(email)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			n, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if n > 0 {
				return ErrAccountExists
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrAccountExists) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrAccountRedisUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: too much contention", ErrAccountRedisUnavailable)
}

// Get loads the account registered under email.
func (s *AccountStore) Get(ctx context.Context, email string) (*AccountRecord, error) {
	data, err := s.redis.Get(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAccountRedisUnavailable, err)
	}
	return decodeAccountRecord(data)
}

// Verify reports whether plaintext matches the stored hash of email.
func (s *AccountStore) Verify(ctx context.Context, email, plaintext string) (bool, error) {
	record, err := s.Get(ctx, email)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(plaintext, record.PasswordHash)
}

func encodeAccountRecord(record *AccountRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(accountRecordVersionV1)
	if err := binary.Write(&buf, binary.BigEndian, record.RegisteredAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.Email, record.PasswordHash} {
		if len(field) > 65535 {
			return nil, errors.New("account record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeAccountRecord(data []byte) (*AccountRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != accountRecordVersionV1 {
		return nil, errors.New("invalid account record version")
	}

	record := &AccountRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.RegisteredAt); err != nil {
		return nil, err
	}

	fields := make([]string, 2)
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}
	record.Email, record.PasswordHash = fields[0], fields[1]

	return record, nil
}
