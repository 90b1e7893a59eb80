package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smartrestaurant/backoffice.git/internal/redisx"
)

type State string

const (
	StateAnonymous           State = "anonymous"
	StatePendingSecondFactor State = "pending_2fa"
	StateAuthenticated       State = "authenticated"
)

type Session struct {
	ID        string
	State     State
	AccountID uuid.UUID
	CSRFToken string
}

// SessionRepo abstracts session persistence; the machine never touches
// process-local state.
type SessionRepo interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// RedisSessions stores each session as a Redis hash with a sliding TTL.
type RedisSessions struct {
	RDB *redis.Client
	TTL time.Duration
}

func (r *RedisSessions) key(id string) string { return fmt.Sprintf(redisx.KeySession, id) }

// Get returns an anonymous session for unknown ids; absence of a record is
// the anonymous state.
func (r *RedisSessions) Get(ctx context.Context, id string) (*Session, error) {
	vals, err := r.RDB.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	s := &Session{ID: id, State: StateAnonymous}
	if len(vals) == 0 {
		return s, nil
	}
	s.State = State(vals["state"])
	s.CSRFToken = vals["csrf"]
	if raw := vals["account_id"]; raw != "" {
		if aid, err := uuid.Parse(raw); err == nil {
			s.AccountID = aid
		}
	}
	return s, nil
}

func (r *RedisSessions) Put(ctx context.Context, s *Session) error {
	key := r.key(s.ID)
	if err := r.RDB.HSet(ctx, key,
		"state", string(s.State),
		"account_id", s.AccountID.String(),
		"csrf", s.CSRFToken,
	).Err(); err != nil {
		return err
	}
	return r.RDB.Expire(ctx, key, r.TTL).Err()
}

func (r *RedisSessions) Delete(ctx context.Context, id string) error {
	return r.RDB.Del(ctx, r.key(id)).Err()
}
