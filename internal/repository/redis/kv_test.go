package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/course-tracker/internal/domain"
	redisrepo "github.com/msomdec/course-tracker/internal/repository/redis"
)

var (
	_ domain.Database      = (*redisrepo.DB)(nil)
	_ domain.KeyValueStore = (*redisrepo.KVStore)(nil)
	_ domain.BatchWriter   = (*redisrepo.KVStore)(nil)
)

func setupTestRedis(t *testing.T) (*redisrepo.DB, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	db, err := redisrepo.NewFromClient(context.Background(), client)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mr
}

func TestKVStore_SetAndGet(t *testing.T) {
	db, mr := setupTestRedis(t)
	kv := db.KV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "device:a:user", []byte(`{"id":1}`)))

	v, err := kv.Get(ctx, "device:a:user")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), v)

	raw, err := mr.Get("device:a:user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, raw)
	assert.Zero(t, mr.TTL("device:a:user"))
}

func TestKVStore_Get_Missing(t *testing.T) {
	db, _ := setupTestRedis(t)

	_, err := db.KV().Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKVStore_Delete(t *testing.T) {
	db, mr := setupTestRedis(t)
	kv := db.KV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	require.NoError(t, kv.Delete(ctx, "k"))
	require.NoError(t, kv.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestKVStore_WriteBatch(t *testing.T) {
	db, mr := setupTestRedis(t)
	kv := db.KV()
	ctx := context.Background()

	require.NoError(t, mr.Set("user", "old"))

	err := kv.WriteBatch(ctx, []domain.KVWrite{
		{Key: "registeredUsers", Value: []byte("[]")},
		{Key: "user", Delete: true},
	})
	require.NoError(t, err)

	mr.CheckGet(t, "registeredUsers", "[]")
	assert.False(t, mr.Exists("user"))
}

func TestKVStore_ServerDown(t *testing.T) {
	db, mr := setupTestRedis(t)
	mr.Close()

	_, err := db.KV().Get(context.Background(), "user")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := redisrepo.New(context.Background(), redisrepo.Config{})
	require.Error(t, err)
}

func TestNew_ConnectsByURL(t *testing.T) {
	mr := miniredis.RunT(t)

	db, err := redisrepo.New(context.Background(), redisrepo.Config{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.HealthCheck(context.Background()))
}
