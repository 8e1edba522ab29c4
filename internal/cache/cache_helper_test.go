package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedTest struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCacheHelperSetGet(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	value := cachedTest{ID: 7, Title: "Midterm"}
	require.NoError(t, helper.Set(ctx, "id:7", value, time.Minute))

	var got cachedTest
	require.NoError(t, helper.Get(ctx, "id:7", &got))
	assert.Equal(t, value, got)
}

func TestCacheHelperGetMiss(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")

	var got cachedTest
	err := helper.Get(context.Background(), "id:404", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelperNilClientDegrades(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "id:1", cachedTest{ID: 1}, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "id:1"))
	assert.NoError(t, helper.InvalidatePattern(ctx, "id:*"))

	var got cachedTest
	assert.ErrorIs(t, helper.Get(ctx, "id:1", &got), ErrCacheNotAvailable)

	_, err := helper.Exists(ctx, "id:1")
	assert.ErrorIs(t, err, ErrCacheNotAvailable)
}

func TestCacheHelperDelete(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "id:1", cachedTest{ID: 1}, time.Minute))
	require.NoError(t, helper.Set(ctx, "id:2", cachedTest{ID: 2}, time.Minute))

	require.NoError(t, helper.Delete(ctx, "id:1", "id:2"))

	exists, err := helper.Exists(ctx, "id:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	require.NoError(t, helper.Set(ctx, "id:1", cachedTest{ID: 1}, time.Minute))
	require.NoError(t, helper.Set(ctx, "id:1:questions", cachedTest{ID: 1}, time.Minute))
	require.NoError(t, helper.Set(ctx, "id:2", cachedTest{ID: 2}, time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "id:1*"))

	exists, err := helper.Exists(ctx, "id:1")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = helper.Exists(ctx, "id:2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheOrExecute(t *testing.T) {
	client := newTestClient(t)
	helper := NewCacheHelper(client, "test:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedTest{ID: 3, Title: "Quiz"}, nil
	}

	var got cachedTest
	require.NoError(t, helper.CacheOrExecute(ctx, "id:3", &got, time.Minute, fetch))
	assert.Equal(t, uint(3), got.ID)
	assert.Equal(t, 1, calls)

	// The write-back is async, poll until the key appears
	assert.Eventually(t, func() bool {
		ok, err := helper.Exists(ctx, "id:3")
		return err == nil && ok
	}, time.Second, 10*time.Millisecond)

	var again cachedTest
	require.NoError(t, helper.CacheOrExecute(ctx, "id:3", &again, time.Minute, fetch))
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls)
}

func TestCacheOrExecuteNilClientAlwaysFetches(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedTest{ID: 4}, nil
	}

	var got cachedTest
	for i := 0; i < 3; i++ {
		require.NoError(t, helper.CacheOrExecute(context.Background(), "id:4", &got, time.Minute, fetch))
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint(4), got.ID)
}

func TestCacheManagerInvalidateTest(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	require.NoError(t, cm.Test.Set(ctx, "id:5", cachedTest{ID: 5}, time.Minute))
	require.NoError(t, cm.Question.Set(ctx, "test:5", cachedTest{ID: 5}, time.Minute))
	require.NoError(t, cm.Results.Set(ctx, "test:5", cachedTest{ID: 5}, time.Minute))
	require.NoError(t, cm.Test.Set(ctx, "id:6", cachedTest{ID: 6}, time.Minute))

	require.NoError(t, cm.InvalidateTest(ctx, 5))

	for _, check := range []struct {
		helper *CacheHelper
		key    string
		want   bool
	}{
		{cm.Test, "id:5", false},
		{cm.Question, "test:5", false},
		{cm.Results, "test:5", false},
		{cm.Test, "id:6", true},
	} {
		exists, err := check.helper.Exists(ctx, check.key)
		require.NoError(t, err)
		assert.Equal(t, check.want, exists, "key %s", check.key)
	}
}

func TestCacheManagerHealthCheck(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, NewCacheManager(client).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewCacheManager(nil).HealthCheck(context.Background()), ErrCacheNotAvailable)
}
