package service

import (
	"context"
	"sync"
	"testing"

	"relationships/model"
	"relationships/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 默认数据中的身份
const (
	walrus uint = 1
	john   uint = 2
	paul   uint = 3
	yoko   uint = 4
)

// testEnv 测试环境（内存 SQLite）
type testEnv struct {
	db        *gorm.DB
	catalog   *StatusCatalog
	store     *RelationshipStore
	svc       *RelationshipService
	following *model.RelationshipStatus
	blocking  *model.RelationshipStatus
	events    *recordingPublisher
}

// newTestDB 建表但不写入状态
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, utils.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newTestEnv 写入默认状态，exclusive 控制是否挂载互斥钩子
func newTestEnv(t *testing.T, exclusive bool) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	catalog := NewStatusCatalog(db, nil)
	require.NoError(t, catalog.SeedDefaults(ctx))

	var hooks []CreateHook
	if exclusive {
		hooks = append(hooks, NewExclusiveStatusHook(catalog, nil))
	}
	store := NewRelationshipStore(db, nil, hooks...)
	events := &recordingPublisher{}
	store.SetEventPublisher(events)

	following, err := catalog.Following(ctx)
	require.NoError(t, err)
	blocking, err := catalog.Blocking(ctx)
	require.NoError(t, err)

	return &testEnv{
		db:        db,
		catalog:   catalog,
		store:     store,
		svc:       NewRelationshipService(db, store, catalog, nil),
		following: following,
		blocking:  blocking,
		events:    events,
	}
}

func (e *testEnv) manager(id uint) *Manager {
	return e.svc.For(id, model.DefaultTenantID)
}

// loadFixture John 关注 Paul 和 Yoko；Yoko 关注 John；Paul 拉黑 John
func (e *testEnv) loadFixture(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := e.manager(john).Add(ctx, paul, e.following)
	require.NoError(t, err)
	_, err = e.manager(john).Add(ctx, yoko, e.following)
	require.NoError(t, err)
	_, err = e.manager(yoko).Add(ctx, john, e.following)
	require.NoError(t, err)
	_, err = e.manager(paul).Add(ctx, john, e.blocking)
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, f RelationshipFilter) int64 {
	t.Helper()
	n, err := e.store.Count(context.Background(), f)
	require.NoError(t, err)
	return n
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu      sync.Mutex
	created []model.Relationship
	removed []model.Relationship
}

func (p *recordingPublisher) PublishCreated(ctx context.Context, rel *model.Relationship) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, *rel)
	return nil
}

func (p *recordingPublisher) PublishRemoved(ctx context.Context, rel *model.Relationship) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, *rel)
	return nil
}
