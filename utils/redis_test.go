package utils

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewStatusCacheRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	core, logs := observer.New(zap.InfoLevel)
	client, err := NewStatusCacheRedis(mr.Addr(), "", 2, zap.New(core))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.Select(2)
	assert.True(t, mr.Exists("k"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, mr.Addr(), logs.All()[0].ContextMap()["addr"])
}

func TestNewStatusCacheRedis_ConnectionError(t *testing.T) {
	client, err := NewStatusCacheRedis("localhost:1", "", 0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localhost:1")
	assert.Nil(t, client)
}
