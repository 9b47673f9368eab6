package redis_a_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/memory"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
)

func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, 5*time.Minute, helpers.TestLogger()), mr
}

func TestCache_SetAndGet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	want := ports.Summary{
		TotalAdjustments:    3,
		TotalQuantityChange: -12,
		TotalCostImpact:     decimal.RequireFromString("-30.75"),
		PendingApprovals:    1,
	}
	require.NoError(t, cache.SetWithTTL(ctx, "summary:1", want, time.Minute))

	var got ports.Summary
	require.NoError(t, cache.Get(ctx, "summary:1", &got))
	assert.Equal(t, want.TotalAdjustments, got.TotalAdjustments)
	assert.True(t, want.TotalCostImpact.Equal(got.TotalCostImpact))
}

func TestCache_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "ttl:test", "value", 100*time.Millisecond))

	var result string
	require.NoError(t, cache.Get(ctx, "ttl:test", &result))
	assert.Equal(t, "value", result)

	mr.FastForward(200 * time.Millisecond)

	err := cache.Get(ctx, "ttl:test", &result)
	assert.ErrorIs(t, err, redis_a.ErrCacheMiss)
}

func TestCache_ZeroTTLUsesDefault(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)

	require.NoError(t, cache.SetWithTTL(ctx, "default:ttl", 1, 0))
	assert.Equal(t, 5*time.Minute, mr.TTL("default:ttl"))
}

func TestCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	storeKeys := []string{"ledger:summary:s1:-:-:10", "ledger:summary:s1:abc:-:5"}
	otherKeys := []string{"ledger:summary:s2:-:-:10", "other:1"}
	for _, key := range append(storeKeys, otherKeys...) {
		require.NoError(t, cache.SetWithTTL(ctx, key, "value", time.Minute))
	}

	require.NoError(t, cache.DeletePattern(ctx, "ledger:summary:s1:*"))

	for _, key := range storeKeys {
		var result string
		assert.ErrorIs(t, cache.Get(ctx, key, &result), redis_a.ErrCacheMiss, key)
	}
	for _, key := range otherKeys {
		var result string
		assert.NoError(t, cache.Get(ctx, key, &result), key)
	}

	assert.NoError(t, cache.DeletePattern(ctx, "nothing:*"))
}

func TestCache_GetOrSet(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	fetchCount := 0
	fetch := func() (interface{}, error) {
		fetchCount++
		return &ports.Summary{TotalAdjustments: 7}, nil
	}

	var first ports.Summary
	require.NoError(t, cache.GetOrSet(ctx, "getorset:test", &first, fetch, time.Minute))
	assert.Equal(t, 7, first.TotalAdjustments)
	assert.Equal(t, 1, fetchCount)

	var second ports.Summary
	require.NoError(t, cache.GetOrSet(ctx, "getorset:test", &second, fetch, time.Minute))
	assert.Equal(t, 7, second.TotalAdjustments)
	assert.Equal(t, 1, fetchCount)
}

func TestCache_GetOrSetConcurrentMissesShareFetch(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	var fetches atomic.Int32
	fetch := func() (interface{}, error) {
		fetches.Add(1)
		time.Sleep(100 * time.Millisecond)
		return &ports.Summary{TotalAdjustments: 3}, nil
	}

	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
	)
	ready.Add(1)
	for i := 0; i < 8; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			ready.Wait()
			var got ports.Summary
			assert.NoError(t, cache.GetOrSet(ctx, "getorset:shared", &got, fetch, time.Minute))
			assert.Equal(t, 3, got.TotalAdjustments)
		}()
	}
	ready.Done()
	done.Wait()

	assert.Equal(t, int32(1), fetches.Load())
}

func TestCache_GetOrSetFetchError(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	boom := errors.New("ledger unavailable")

	var dest ports.Summary
	err := cache.GetOrSet(ctx, "getorset:fail", &dest, func() (interface{}, error) {
		return nil, boom
	}, time.Minute)
	assert.ErrorIs(t, err, boom)

	var result ports.Summary
	assert.ErrorIs(t, cache.Get(ctx, "getorset:fail", &result), redis_a.ErrCacheMiss)
}

func TestCache_SetNX(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)

	ok, err := cache.SetNX(ctx, "setnx:test", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "setnx:test", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var result string
	require.NoError(t, cache.Get(ctx, "setnx:test", &result))
	assert.Equal(t, "first", result)
}

func TestCache_PingFailsWhenServerIsDown(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}

func TestCache_SummaryInvalidatedByWrites(t *testing.T) {
	ctx := context.Background()
	cache, mr := newCache(t)
	svc := services.NewLedgerService(memory.NewGateway(), cache, nil, services.DefaultOptions(), helpers.TestLogger())
	actor := helpers.CreateTestActor()

	summary, err := svc.GetSummary(ctx, actor, ports.SummaryQuery{})
	require.NoError(t, err)
	assert.Zero(t, summary.TotalAdjustments)
	assert.NotEmpty(t, mr.Keys())

	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.UnitCost = helpers.Decimal("4")
	}))
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())

	summary, err = svc.GetSummary(ctx, actor, ports.SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalAdjustments)
	assert.Equal(t, "-20", summary.TotalCostImpact.String())
	require.Len(t, summary.Recent, 1)
	assert.Equal(t, -5, summary.Recent[0].QuantityChange)
}

func TestCache_BuildKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   redis_a.CacheKeyPrefix
		parts    []string
		expected string
	}{
		{
			name:     "approval_notice_key",
			prefix:   redis_a.PrefixApprovalNotice,
			parts:    []string{"store-1", "rec-9"},
			expected: "ledger:approval-notice:store-1:rec-9",
		},
		{
			name:     "no_parts",
			prefix:   redis_a.PrefixExport,
			parts:    []string{},
			expected: "ledger:export",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, redis_a.BuildKey(tt.prefix, tt.parts...))
		})
	}
}
