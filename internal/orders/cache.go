package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smartrestaurant/backoffice.git/internal/redisx"
)

// StatusCache keeps the hot (status, payment_status) pair in Redis so
// polling clients stay off Postgres. Entries are written on read-through
// and dropped on every status change.
type StatusCache struct {
	RDB *redis.Client
}

type cachedStatus struct {
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

func (c *StatusCache) key(id uuid.UUID) string {
	return fmt.Sprintf(redisx.KeyOrderStatus, id)
}

func (c *StatusCache) Get(ctx context.Context, id uuid.UUID) (Status, PaymentStatus, bool) {
	raw, err := c.RDB.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return "", "", false
	}
	var v cachedStatus
	if json.Unmarshal(raw, &v) != nil {
		return "", "", false
	}
	return v.Status, v.PaymentStatus, true
}

func (c *StatusCache) Put(ctx context.Context, id uuid.UUID, status Status, payment PaymentStatus) error {
	raw, err := json.Marshal(cachedStatus{Status: status, PaymentStatus: payment})
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, c.key(id), raw, redisx.TTLStatusCache).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	err := c.RDB.Del(ctx, c.key(id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
