package store

import (
	"context"
	"testing"

	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bastiangx/pdfserve/pkg/cache"
)

func TestRedisGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "pdfserve_cache")).
		Return(mock.Result(mock.RedisString("payload")))

	r := NewRedisWithClient(c)
	got, err := r.Get(context.Background(), "pdfserve_cache")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestRedisGetMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "absent")).
		Return(mock.Result(mock.RedisNil()))

	r := NewRedisWithClient(c)
	_, err := r.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisGetError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	r := NewRedisWithClient(c)
	_, err := r.Get(context.Background(), "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, cache.ErrNotFound)
}

func TestRedisSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	r := NewRedisWithClient(c)
	assert.NoError(t, r.Set(context.Background(), "k", []byte("v")))
}

func TestRedisSetError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	r := NewRedisWithClient(c)
	assert.Error(t, r.Set(context.Background(), "k", []byte("v")))
}

func TestRedisDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(1)))

	r := NewRedisWithClient(c)
	assert.NoError(t, r.Delete(context.Background(), "k"))
}

func TestRedisPing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	r := NewRedisWithClient(c)
	assert.NoError(t, r.Ping(context.Background()))
}

func TestNewRedisRequiresAddrs(t *testing.T) {
	_, err := NewRedis(RedisConfig{})
	assert.Error(t, err)
}
