package progress

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "nested", "progress.db"))
			require.NoError(t, err)
			return s
		},
		"redis": func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
		},
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 30, 0, 0, time.UTC)
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			latest, err := s.Latest(ctx, "g1")
			require.NoError(t, err)
			assert.Nil(t, latest, "no records yet")

			history, err := s.History(ctx, "g1")
			require.NoError(t, err)
			assert.Empty(t, history)

			// Inserted out of order.
			records := []Record{
				{GoalID: "g1", Progress: 40, Note: "halfway-ish", RecordedAt: day(3)},
				{GoalID: "g1", Progress: 10, RecordedAt: day(1)},
				{GoalID: "g1", Progress: 25, RecordedAt: day(2)},
				{GoalID: "g2", Progress: 90, RecordedAt: day(2)},
			}
			for _, r := range records {
				require.NoError(t, s.Record(ctx, r))
			}

			history, err = s.History(ctx, "g1")
			require.NoError(t, err)
			want := []Record{records[1], records[2], records[0]}
			if diff := cmp.Diff(want, history); diff != "" {
				t.Errorf("History() mismatch (-want +got):\n%s", diff)
			}

			latest, err = s.Latest(ctx, "g1")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, 40, latest.Progress)
			assert.Equal(t, "halfway-ish", latest.Note)

			require.NoError(t, s.Forget(ctx, "g1"))
			latest, err = s.Latest(ctx, "g1")
			require.NoError(t, err)
			assert.Nil(t, latest)

			other, err := s.Latest(ctx, "g2")
			require.NoError(t, err)
			require.NotNil(t, other)
			assert.Equal(t, 90, other.Progress)
		})
	}
}

func TestStores_CloseRecordsKeepInsertionOrder(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			at := time.Date(2025, 6, 1, 8, 0, 0, 123456789, time.UTC)
			records := []Record{
				{GoalID: "g1", Progress: 30, RecordedAt: at},
				{GoalID: "g1", Progress: 20, RecordedAt: at.Add(100 * time.Nanosecond)},
				{GoalID: "g1", Progress: 20, RecordedAt: at.Add(100 * time.Nanosecond)},
				{GoalID: "g1", Progress: 10, RecordedAt: at.Add(200 * time.Nanosecond)},
			}
			for _, r := range records {
				require.NoError(t, s.Record(ctx, r))
			}

			latest, err := s.Latest(ctx, "g1")
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.Equal(t, 10, latest.Progress)

			history, err := s.History(ctx, "g1")
			require.NoError(t, err)
			got := make([]int, 0, len(history))
			for _, r := range history {
				got = append(got, r.Progress)
			}
			assert.Equal(t, []int{30, 20, 20, 10}, got, "identical records are all kept")
		})
	}
}

func TestStores_RejectInvalid(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			t.Cleanup(func() { _ = s.Close() })

			ctx := context.Background()
			assert.Error(t, s.Record(ctx, Record{GoalID: "g", Progress: 101, RecordedAt: day(1)}))
			assert.Error(t, s.Record(ctx, Record{GoalID: "g", Progress: -1, RecordedAt: day(1)}))
			assert.Error(t, s.Record(ctx, Record{Progress: 5, RecordedAt: day(1)}))
			assert.Error(t, s.Record(ctx, Record{GoalID: "g", Progress: 5}))
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Kind: KindSQLite, SQLitePath: filepath.Join(t.TempDir(), "p.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Config{Kind: KindRedis, RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
	assert.Equal(t, DefaultRedisKeyPrefix, s.(*RedisStore).prefix)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Kind: KindSQLite})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Kind: KindRedis})
	assert.Error(t, err)
	_, err = Open(ctx, Config{Kind: "etcd"})
	assert.Error(t, err)
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "dg:")
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Record(context.Background(), Record{GoalID: "abc", Progress: 5, RecordedAt: day(1)}))
	assert.True(t, mr.Exists("dg:progress:abc"))
	assert.True(t, mr.Exists("dg:progress:abc:seq"))

	require.NoError(t, s.Forget(context.Background(), "abc"))
	assert.False(t, mr.Exists("dg:progress:abc"))
	assert.False(t, mr.Exists("dg:progress:abc:seq"))
}
