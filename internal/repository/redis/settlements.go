package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	settlementQueueKey = ns + ":settlements:scheduled"

	// settlementLease is how long a worker holds a claimed payment before it
	// becomes due again. A worker that dies mid-settlement loses the lease
	// and the payment is redelivered instead of dropped.
	settlementLease = 30 * time.Second
)

// SettlementQueue is a sorted-set of payment ids scored by the time their
// settlement is due. Delivery is at-least-once: the settle operation itself
// is idempotent per payment id, so a redelivered member is harmless.
type SettlementQueue struct {
	rdb *redis.Client
	key string
}

func NewSettlementQueue(rdb *redis.Client) *SettlementQueue {
	return &SettlementQueue{rdb: rdb, key: settlementQueueKey}
}

// Schedule enqueues a settlement for the payment at the given time.
// Re-scheduling an already queued payment moves its due time.
func (q *SettlementQueue) Schedule(ctx context.Context, paymentID uuid.UUID, at time.Time) error {
	return q.rdb.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: paymentID.String(),
	}).Err()
}

// Due leases up to limit payments whose due time has passed. A leased member
// stays in the set with its score pushed to the lease deadline, so a crashed
// worker surfaces it again; callers remove it with Done once the payment
// reaches a terminal state. A member another worker leased first is skipped.
func (q *SettlementQueue) Due(ctx context.Context, now time.Time, limit int64) ([]uuid.UUID, error) {
	members, err := q.rdb.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   formatScore(now),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, err
	}

	lease := float64(now.Add(settlementLease).UnixMilli())

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		// The score bump doubles as the claim: GT+CH reports no change when
		// another worker already pushed the score past the due time.
		claimed, err := q.rdb.ZAddArgs(ctx, q.key, redis.ZAddArgs{
			XX:      true,
			GT:      true,
			Ch:      true,
			Members: []redis.Z{{Score: lease, Member: m}},
		}).Result()
		if err != nil {
			return ids, err
		}
		if claimed == 0 {
			continue
		}

		id, err := uuid.Parse(m)
		if err != nil {
			// Malformed member, drop it rather than lease it forever.
			q.rdb.ZRem(ctx, q.key, m)
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Done removes a payment from the queue once it has settled or failed.
func (q *SettlementQueue) Done(ctx context.Context, paymentID uuid.UUID) error {
	return q.rdb.ZRem(ctx, q.key, paymentID.String()).Err()
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
