package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementQueue_Schedule(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	q := NewSettlementQueue(db)

	id := uuid.New()
	at := time.Date(2026, 9, 20, 18, 30, 2, 0, time.UTC)

	mock.ExpectZAdd(settlementQueueKey, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: id.String(),
	}).SetVal(1)

	require.NoError(t, q.Schedule(context.Background(), id, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlementQueue_Due(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 20, 18, 30, 5, 0, time.UTC)

	lease := func(member string) redis.ZAddArgs {
		return redis.ZAddArgs{
			XX: true,
			GT: true,
			Ch: true,
			Members: []redis.Z{{
				Score:  float64(now.Add(settlementLease).UnixMilli()),
				Member: member,
			}},
		}
	}

	t.Run("leases due members without removing them", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		q := NewSettlementQueue(db)

		a, b := uuid.New(), uuid.New()

		mock.ExpectZRangeByScore(settlementQueueKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(now.UnixMilli(), 10),
			Count: 10,
		}).SetVal([]string{a.String(), b.String()})
		mock.ExpectZAddArgs(settlementQueueKey, lease(a.String())).SetVal(1)
		mock.ExpectZAddArgs(settlementQueueKey, lease(b.String())).SetVal(1)

		ids, err := q.Due(context.Background(), now, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a, b}, ids)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member leased by another worker is skipped", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		q := NewSettlementQueue(db)

		a, b := uuid.New(), uuid.New()

		mock.ExpectZRangeByScore(settlementQueueKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(now.UnixMilli(), 10),
			Count: 10,
		}).SetVal([]string{a.String(), b.String()})
		mock.ExpectZAddArgs(settlementQueueKey, lease(a.String())).SetVal(0)
		mock.ExpectZAddArgs(settlementQueueKey, lease(b.String())).SetVal(1)

		ids, err := q.Due(context.Background(), now, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b}, ids)
	})

	t.Run("empty queue", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		q := NewSettlementQueue(db)

		mock.ExpectZRangeByScore(settlementQueueKey, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(now.UnixMilli(), 10),
			Count: 10,
		}).SetVal([]string{})

		ids, err := q.Due(context.Background(), now, 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestSettlementQueue_Done(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	q := NewSettlementQueue(db)

	id := uuid.New()
	mock.ExpectZRem(settlementQueueKey, id.String()).SetVal(1)

	require.NoError(t, q.Done(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_PublishedEvents(t *testing.T) {
	t.Parallel()

	t.Run("key shape", func(t *testing.T) {
		assert.Equal(t, "nexvent:v1:events:published:all", KeyPublishedEvents(""))
		assert.Equal(t, "nexvent:v1:events:published:concert", KeyPublishedEvents("concert"))
	})

	t.Run("invalidate drops the uncategorised listing", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewCache(db)

		mock.ExpectDel(KeyPublishedEvents("")).SetVal(1)

		require.NoError(t, c.InvalidatePublishedEvents(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss then hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := NewCache(db)
		key := KeyPublishedEvents("")

		mock.ExpectGet(key).RedisNil()
		_, ok, err := c.GetString(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, ok)

		mock.ExpectSet(key, "[]", time.Minute).SetVal("OK")
		require.NoError(t, c.SetString(context.Background(), key, "[]", time.Minute))

		mock.ExpectGet(key).SetVal("[]")
		v, ok, err := c.GetString(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "[]", v)
	})
}
