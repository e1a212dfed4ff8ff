package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"relationships/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCatalog_DefaultsMissing(t *testing.T) {
	db := newTestDB(t)
	catalog := NewStatusCatalog(db, nil)
	ctx := context.Background()

	_, err := catalog.Following(ctx)
	assert.ErrorIs(t, err, ErrStatusNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = catalog.Blocking(ctx)
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestStatusCatalog_SeedDefaultsIsIdempotent(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	require.NoError(t, env.catalog.SeedDefaults(ctx))

	statuses, err := env.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, "Following", statuses[0].Name)
	assert.Equal(t, "follow", statuses[0].Verb)
	assert.False(t, statuses[0].LoginRequired)
	assert.False(t, statuses[0].Private)

	assert.Equal(t, "Blocking", statuses[1].Name)
	assert.Equal(t, "blockers", statuses[1].ToSlug)
	assert.Equal(t, "!", statuses[1].SymmetricalSlug)
	assert.True(t, statuses[1].LoginRequired)
	assert.True(t, statuses[1].Private)
}

func TestStatusCatalog_BySlug(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	cases := []struct {
		slug   string
		status uint
		dir    Direction
	}{
		{"following", env.following.ID, DirectionFrom},
		{"followers", env.following.ID, DirectionTo},
		{"friends", env.following.ID, DirectionSymmetrical},
		{"blocking", env.blocking.ID, DirectionFrom},
		{"blockers", env.blocking.ID, DirectionTo},
		{"!", env.blocking.ID, DirectionSymmetrical},
	}
	for _, tc := range cases {
		t.Run(tc.slug, func(t *testing.T) {
			status, dir, err := env.catalog.BySlug(ctx, tc.slug)
			require.NoError(t, err)
			assert.Equal(t, tc.status, status.ID)
			assert.Equal(t, tc.dir, dir)
		})
	}

	_, _, err := env.catalog.BySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrStatusNotFound)

	// to_slug 不能当作 from_slug 使用
	_, err = env.catalog.ByFromSlug(ctx, "followers")
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestStatusCatalog_BySlugAmbiguous(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	// 绕过校验写入冲突数据
	corrupt := model.RelationshipStatus{
		Name: "Corrupt", Verb: "corrupt",
		FromSlug: "corrupt", ToSlug: "following", SymmetricalSlug: "corrupted",
	}
	require.NoError(t, env.db.Create(&corrupt).Error)

	_, _, err := env.catalog.BySlug(ctx, "following")
	assert.ErrorIs(t, err, ErrAmbiguousSlug)
}

func TestStatusCatalog_GetAndDelete(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	status, err := env.catalog.Get(ctx, env.following.ID)
	require.NoError(t, err)
	assert.Equal(t, "following", status.FromSlug)

	_, err = env.catalog.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrStatusNotFound)

	assert.ErrorIs(t, env.catalog.Delete(ctx, 999), ErrStatusNotFound)

	// 仍被引用的状态不能删除
	_, err = env.manager(john).Add(ctx, paul, env.following)
	require.NoError(t, err)
	err = env.catalog.Delete(ctx, env.following.ID)
	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr), "expected storage error, got %v", err)

	require.NoError(t, env.catalog.Delete(ctx, env.blocking.ID))
	_, err = env.catalog.Blocking(ctx)
	assert.ErrorIs(t, err, ErrStatusNotFound)
}

func TestStatusCatalog_CreateAndUpdate(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	muting := &model.RelationshipStatus{
		Name: "Muting", Verb: "mute",
		FromSlug: "muting", ToSlug: "muters", SymmetricalSlug: "mutual-mutes",
		Private: true,
	}
	require.NoError(t, env.catalog.Create(ctx, muting))
	assert.NotZero(t, muting.ID)

	status, dir, err := env.catalog.BySlug(ctx, "muters")
	require.NoError(t, err)
	assert.Equal(t, muting.ID, status.ID)
	assert.Equal(t, DirectionTo, dir)

	// 更新自身时保留原 slug 不算冲突
	muting.Name = "Muted"
	require.NoError(t, env.catalog.Update(ctx, muting))

	updated, err := env.catalog.Get(ctx, muting.ID)
	require.NoError(t, err)
	assert.Equal(t, "Muted", updated.Name)
	assert.True(t, updated.Private)

	missing := &model.RelationshipStatus{ID: 999, Name: "x", Verb: "x", FromSlug: "a", ToSlug: "b", SymmetricalSlug: "c"}
	assert.ErrorIs(t, env.catalog.Update(ctx, missing), ErrStatusNotFound)
}

func TestStatusCatalog_CacheServesAndFlushes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db := newTestDB(t)
	ctx := context.Background()
	catalog := NewStatusCatalogWithCache(db, NewStatusCache(rdb, time.Minute), nil)
	require.NoError(t, catalog.SeedDefaults(ctx))

	status, dir, err := catalog.BySlug(ctx, "followers")
	require.NoError(t, err)
	assert.Equal(t, DirectionTo, dir)
	assert.True(t, mr.Exists(statusCachePrefix+"followers"))

	// 缓存命中时不读数据库
	require.NoError(t, db.Model(&model.RelationshipStatus{}).Where("id = ?", status.ID).Update("name", "Renamed").Error)
	cached, _, err := catalog.BySlug(ctx, "followers")
	require.NoError(t, err)
	assert.Equal(t, "Following", cached.Name)

	// 写操作清空缓存
	require.NoError(t, catalog.Create(ctx, &model.RelationshipStatus{
		Name: "Muting", Verb: "mute", FromSlug: "muting", ToSlug: "muters", SymmetricalSlug: "mutes",
	}))
	assert.False(t, mr.Exists(statusCachePrefix+"followers"))

	fresh, _, err := catalog.BySlug(ctx, "followers")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fresh.Name)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(statusCachePrefix+"followers"))
}

func TestStatusCatalog_CacheDownFallsBackToDatabase(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	db := newTestDB(t)
	ctx := context.Background()
	catalog := NewStatusCatalogWithCache(db, NewStatusCache(rdb, time.Minute), nil)
	require.NoError(t, catalog.SeedDefaults(ctx))

	status, err := catalog.Following(ctx)
	require.NoError(t, err)
	assert.Equal(t, "following", status.FromSlug)
}

func TestRelationshipStatus_Visible(t *testing.T) {
	following := model.DefaultStatuses()[0]
	blocking := model.DefaultStatuses()[1]

	assert.True(t, following.Visible(john, 0, false))
	assert.True(t, following.Visible(john, paul, true))

	assert.False(t, blocking.Visible(john, 0, false))
	assert.False(t, blocking.Visible(john, paul, true))
	assert.True(t, blocking.Visible(john, john, true))
}
