package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"scholarship/internal/retry"
)

// runBackendContract checks the behaviour every Backend shares. expire moves the
// backend's notion of time forward; nil skips the expiry checks.
func runBackendContract(t *testing.T, backend Backend, expire func(d time.Duration)) {
	t.Helper()
	ctx := context.Background()
	key := []byte{0x00, 0x01, 0x02}

	_, err := backend.Load(ctx, "c1", DurabilityPersistent, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Commit(ctx, []Entry{
		{ContractID: "c1", Durability: DurabilityPersistent, Key: key, Value: []byte("persistent")},
		{ContractID: "c1", Durability: DurabilityInstance, Key: key, Value: []byte("instance")},
		{ContractID: "c2", Durability: DurabilityPersistent, Key: key, Value: []byte("other contract")},
		{ContractID: "c1", Durability: DurabilityTemporary, Key: key, Value: []byte("temporary"), LiveUntil: time.Now().Add(time.Hour)},
	}))

	expected := map[Durability]string{
		DurabilityPersistent: "persistent",
		DurabilityInstance:   "instance",
		DurabilityTemporary:  "temporary",
	}
	for durability, want := range expected {
		got, err := backend.Load(ctx, "c1", durability, key)
		require.NoError(t, err, durability)
		require.Equal(t, want, string(got), durability)
	}

	got, err := backend.Load(ctx, "c2", DurabilityPersistent, key)
	require.NoError(t, err)
	require.Equal(t, "other contract", string(got))

	require.NoError(t, backend.Commit(ctx, []Entry{
		{ContractID: "c1", Durability: DurabilityPersistent, Key: key, Value: []byte("overwritten")},
	}))
	got, err = backend.Load(ctx, "c1", DurabilityPersistent, key)
	require.NoError(t, err)
	require.Equal(t, "overwritten", string(got))

	require.NoError(t, backend.Commit(ctx, nil))
	require.NoError(t, backend.Ping(ctx))

	if expire == nil {
		return
	}

	expire(2 * time.Hour)

	_, err = backend.Load(ctx, "c1", DurabilityTemporary, key)
	require.ErrorIs(t, err, ErrNotFound)

	got, err = backend.Load(ctx, "c1", DurabilityPersistent, key)
	require.NoError(t, err)
	require.Equal(t, "overwritten", string(got))
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend()
	now := time.Now()
	backend.SetClock(func() time.Time { return now })

	runBackendContract(t, backend, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryBackendEvict(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	key := []byte("record")

	require.False(t, backend.Evict("c1", DurabilityPersistent, key))
	require.NoError(t, backend.Commit(ctx, []Entry{{ContractID: "c1", Durability: DurabilityPersistent, Key: key, Value: []byte("v")}}))
	require.Equal(t, 1, backend.Len())

	require.True(t, backend.Evict("c1", DurabilityPersistent, key))
	_, err := backend.Load(ctx, "c1", DurabilityPersistent, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackendCommitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := NewMemoryBackend()
	err := backend.Commit(ctx, []Entry{{ContractID: "c1", Durability: DurabilityInstance, Key: []byte("k"), Value: []byte("v")}})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, backend.Len())
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLiteBackend(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer backend.Close()

	now := time.Now()
	backend.now = func() time.Time { return now }

	runBackendContract(t, backend, func(d time.Duration) { now = now.Add(d) })
}

func TestSQLiteBackendPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	backend, err := NewSQLiteBackend(ctx, path)
	require.NoError(t, err)
	require.NoError(t, backend.Commit(ctx, []Entry{{ContractID: "c1", Durability: DurabilityInstance, Key: []byte("admin"), Value: []byte("GADMIN")}}))
	require.NoError(t, backend.Close())

	reopened, err := NewSQLiteBackend(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx, "c1", DurabilityInstance, []byte("admin"))
	require.NoError(t, err)
	require.Equal(t, "GADMIN", string(got))
}

func TestRedisBackend(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	backend := NewRedisBackend(client, "scholarship")
	defer backend.Close()

	runBackendContract(t, backend, server.FastForward)
}

func TestRedisBackendDropsAlreadyExpiredEntries(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	ctx := context.Background()
	backend := NewRedisBackend(redis.NewClient(&redis.Options{Addr: server.Addr()}), "scholarship")
	defer backend.Close()

	key := []byte("activity")
	require.NoError(t, backend.Commit(ctx, []Entry{{ContractID: "c1", Durability: DurabilityTemporary, Key: key, Value: []byte("1"), LiveUntil: time.Now().Add(time.Hour)}}))
	require.NoError(t, backend.Commit(ctx, []Entry{{ContractID: "c1", Durability: DurabilityTemporary, Key: key, Value: []byte("2"), LiveUntil: time.Now().Add(-time.Second)}}))

	_, err = backend.Load(ctx, "c1", DurabilityTemporary, key)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresBackend(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	backend, err := NewPostgresBackend(context.Background(), databaseURL)
	require.NoError(t, err)
	defer backend.Close()

	runBackendContract(t, backend, nil)
}

type failingBackend struct {
	*MemoryBackend
}

func (f failingBackend) Commit(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return errors.New("connection refused")
}

func TestTieredRoutesByDurability(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	durable := NewMemoryBackend()
	temporary := NewRedisBackend(redis.NewClient(&redis.Options{Addr: server.Addr()}), "scholarship")
	tiered := NewTiered(durable, temporary)
	defer tiered.Close()

	runBackendContract(t, tiered, server.FastForward)
	require.Equal(t, 3, durable.Len())
	require.Len(t, server.Keys(), 0, "temporary entry should have expired in redis")
}

func TestTieredTemporaryFailureIsBestEffort(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryBackend()
	tiered := NewTiered(durable, failingBackend{NewMemoryBackend()})

	err := tiered.Commit(ctx, []Entry{
		{ContractID: "c1", Durability: DurabilityInstance, Key: []byte("stats"), Value: []byte("v")},
		{ContractID: "c1", Durability: DurabilityTemporary, Key: []byte("activity"), Value: []byte("t")},
	})
	require.NoError(t, err)

	got, err := tiered.Load(ctx, "c1", DurabilityInstance, []byte("stats"))
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	_, err = tiered.Load(ctx, "c1", DurabilityTemporary, []byte("activity"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTieredDurableFailureAbortsCommit(t *testing.T) {
	ctx := context.Background()
	temporary := NewMemoryBackend()
	tiered := NewTiered(failingBackend{NewMemoryBackend()}, temporary)

	err := tiered.Commit(ctx, []Entry{
		{ContractID: "c1", Durability: DurabilityPersistent, Key: []byte("record"), Value: []byte("v")},
		{ContractID: "c1", Durability: DurabilityTemporary, Key: []byte("activity"), Value: []byte("t")},
	})
	require.Error(t, err)
	require.Zero(t, temporary.Len())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	strategy := retry.NewNoRetryStrategy()

	backend, err := Open(ctx, Options{Driver: DriverMemory}, strategy)
	require.NoError(t, err)
	require.IsType(t, &MemoryBackend{}, backend)

	backend, err = Open(ctx, Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "ledger.db")}, strategy)
	require.NoError(t, err)
	require.IsType(t, &SQLiteBackend{}, backend)
	require.NoError(t, backend.Close())

	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	backend, err = Open(ctx, Options{Driver: DriverMemory, RedisURL: "redis://" + server.Addr(), RedisPrefix: "scholarship"}, strategy)
	require.NoError(t, err)
	require.IsType(t, &Tiered{}, backend)
	require.NoError(t, backend.Ping(ctx))
	require.NoError(t, backend.Close())

	_, err = Open(ctx, Options{Driver: "mysql"}, strategy)
	require.Error(t, err)
}
