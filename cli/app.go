package cli

import (
	"time"

	"relationships/config"
	"relationships/eventbroker"
	"relationships/service"
	"relationships/utils"

	"go.uber.org/zap"
)

// App 组装好的依赖
type App struct {
	Config     *config.Config
	Catalog    *service.StatusCatalog
	Service    *service.RelationshipService
	Identities service.IdentityResolver

	closers []func()
}

// newApp 按配置初始化数据库、Redis、NATS 和服务
func newApp(cfg *config.Config) (*App, error) {
	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		return nil, err
	}
	log := utils.GetLogger()
	app := &App{Config: cfg}
	app.onClose(utils.SyncLogger)

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL, time.Duration(cfg.SlowQueryMS)*time.Millisecond); err != nil {
		app.Close()
		return nil, err
	}
	db := utils.GetDB()
	app.onClose(func() { utils.CloseDB() })

	// 状态目录（Redis 可选）
	catalog := service.NewStatusCatalog(db, log)
	if cfg.RedisURL != "" {
		rdb, err := utils.NewStatusCacheRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Warn("redis unavailable, status cache disabled", zap.Error(err))
		} else {
			app.onClose(func() { rdb.Close() })
			cache := service.NewStatusCache(rdb, time.Duration(cfg.StatusCacheTTL)*time.Second)
			catalog = service.NewStatusCatalogWithCache(db, cache, log)
		}
	}
	app.Catalog = catalog

	var hooks []service.CreateHook
	if len(cfg.ExclusiveStatuses) == 2 {
		hooks = append(hooks, service.NewExclusiveStatusHookFor(catalog, cfg.ExclusiveStatuses[0], cfg.ExclusiveStatuses[1], log))
	} else if len(cfg.ExclusiveStatuses) != 0 {
		log.Warn("EXCLUSIVE_STATUSES needs exactly two slugs, hook disabled", zap.Strings("slugs", cfg.ExclusiveStatuses))
	}
	store := service.NewRelationshipStore(db, log, hooks...)

	// 事件发布（可选）
	if cfg.NatsURL != "" {
		broker, err := eventbroker.NewNatsBroker(cfg.NatsURL)
		if err != nil {
			log.Warn("nats unavailable, events disabled", zap.Error(err))
		} else {
			store.SetEventPublisher(broker)
			app.onClose(broker.Close)
		}
	}

	svc := service.NewRelationshipService(db, store, catalog, log)
	svc.SetTenantResolver(service.StaticTenant(cfg.DefaultTenantID))
	app.Service = svc

	identities, err := service.NewGormIdentityResolver(db, cfg.UserTable, cfg.UserIDColumn, cfg.UserHandleColumn)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Identities = identities

	return app, nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close 按打开的逆序释放资源，可重复调用
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
