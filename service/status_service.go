package service

import (
	"context"
	"errors"
	"fmt"

	"relationships/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Direction slug 匹配到状态的哪一个视角
type Direction int

const (
	DirectionFrom Direction = iota + 1
	DirectionTo
	DirectionSymmetrical
)

func (d Direction) String() string {
	switch d {
	case DirectionFrom:
		return "from"
	case DirectionTo:
		return "to"
	case DirectionSymmetrical:
		return "symmetrical"
	}
	return "unknown"
}

// directionOf slug 在状态中的视角
func directionOf(status *model.RelationshipStatus, slug string) Direction {
	switch slug {
	case status.FromSlug:
		return DirectionFrom
	case status.ToSlug:
		return DirectionTo
	case status.SymmetricalSlug:
		return DirectionSymmetrical
	}
	return 0
}

// StatusCatalog 关系状态目录
type StatusCatalog struct {
	db    *gorm.DB
	cache *StatusCache // 可选
	log   *zap.Logger
}

func NewStatusCatalog(db *gorm.DB, log *zap.Logger) *StatusCatalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusCatalog{db: db, log: log}
}

func NewStatusCatalogWithCache(db *gorm.DB, cache *StatusCache, log *zap.Logger) *StatusCatalog {
	c := NewStatusCatalog(db, log)
	c.cache = cache
	return c
}

// Using 返回使用指定连接（通常是事务）的目录副本，缓存共享
func (c *StatusCatalog) Using(db *gorm.DB) *StatusCatalog {
	cp := *c
	cp.db = db
	return &cp
}

// Following 默认的 following 状态
func (c *StatusCatalog) Following(ctx context.Context) (*model.RelationshipStatus, error) {
	return c.ByFromSlug(ctx, model.SlugFollowing)
}

// Blocking 默认的 blocking 状态
func (c *StatusCatalog) Blocking(ctx context.Context) (*model.RelationshipStatus, error) {
	return c.ByFromSlug(ctx, model.SlugBlocking)
}

// ByFromSlug 按 from_slug 查找
func (c *StatusCatalog) ByFromSlug(ctx context.Context, slug string) (*model.RelationshipStatus, error) {
	status, dir, err := c.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if dir != DirectionFrom {
		return nil, fmt.Errorf("%w: no status with from_slug %q", ErrStatusNotFound, slug)
	}
	return status, nil
}

// BySlug 在 from/to/symmetrical 三种 slug 中查找唯一匹配的状态
func (c *StatusCatalog) BySlug(ctx context.Context, slug string) (*model.RelationshipStatus, Direction, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, slug)
		if err != nil {
			c.log.Warn("status cache read failed", zap.String("slug", slug), zap.Error(err))
		} else if cached != nil {
			if dir := directionOf(cached, slug); dir != 0 {
				return cached, dir, nil
			}
		}
	}

	var statuses []model.RelationshipStatus
	err := c.db.WithContext(ctx).
		Where("from_slug = ? OR to_slug = ? OR symmetrical_slug = ?", slug, slug, slug).
		Limit(2).
		Find(&statuses).Error
	if err != nil {
		return nil, 0, storageError("query relationship status", err)
	}

	switch len(statuses) {
	case 0:
		return nil, 0, fmt.Errorf("%w: %q", ErrStatusNotFound, slug)
	case 1:
	default:
		c.log.Error("relationship status catalog is inconsistent", zap.String("slug", slug))
		return nil, 0, fmt.Errorf("%w: %q", ErrAmbiguousSlug, slug)
	}

	status := &statuses[0]
	if c.cache != nil {
		if err := c.cache.Set(ctx, slug, status); err != nil {
			c.log.Warn("status cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return status, directionOf(status, slug), nil
}

// Get 按 ID 查找
func (c *StatusCatalog) Get(ctx context.Context, id uint) (*model.RelationshipStatus, error) {
	var status model.RelationshipStatus
	err := c.db.WithContext(ctx).First(&status, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrStatusNotFound, id)
	}
	if err != nil {
		return nil, storageError("query relationship status", err)
	}
	return &status, nil
}

// List 全部状态（按 ID）
func (c *StatusCatalog) List(ctx context.Context) ([]model.RelationshipStatus, error) {
	var statuses []model.RelationshipStatus
	if err := c.db.WithContext(ctx).Order("id ASC").Find(&statuses).Error; err != nil {
		return nil, storageError("list relationship statuses", err)
	}
	return statuses, nil
}

// Create 校验后创建状态
func (c *StatusCatalog) Create(ctx context.Context, status *model.RelationshipStatus) error {
	status.ID = 0
	if err := c.Validate(ctx, status); err != nil {
		return err
	}
	if err := c.db.WithContext(ctx).Create(status).Error; err != nil {
		return c.writeError("create relationship status", err)
	}
	c.flush(ctx)
	return nil
}

// Update 校验后保存状态（校验排除自身）
func (c *StatusCatalog) Update(ctx context.Context, status *model.RelationshipStatus) error {
	if _, err := c.Get(ctx, status.ID); err != nil {
		return err
	}
	if err := c.Validate(ctx, status); err != nil {
		return err
	}
	if err := c.db.WithContext(ctx).Save(status).Error; err != nil {
		return c.writeError("update relationship status", err)
	}
	c.flush(ctx)
	return nil
}

// Delete 删除状态；仍被关系引用时返回外键错误（StorageError）
func (c *StatusCatalog) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&model.RelationshipStatus{}, id)
	if result.Error != nil {
		return storageError("delete relationship status", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrStatusNotFound, id)
	}
	c.flush(ctx)
	return nil
}

// SeedDefaults 插入默认的 Following / Blocking 状态（已存在则跳过）
func (c *StatusCatalog) SeedDefaults(ctx context.Context) error {
	for _, def := range model.DefaultStatuses() {
		var status model.RelationshipStatus
		err := c.db.WithContext(ctx).
			Where(model.RelationshipStatus{FromSlug: def.FromSlug}).
			Attrs(def).
			FirstOrCreate(&status).Error
		if err != nil {
			return storageError("seed relationship status", err)
		}
		c.log.Debug("relationship status ready", zap.String("from_slug", status.FromSlug), zap.Uint("id", status.ID))
	}
	c.flush(ctx)
	return nil
}

// writeError 并发写入导致的唯一约束冲突按校验错误返回
func (c *StatusCatalog) writeError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ValidationError{NonFieldErrors: []string{"slug or verb already in use"}}
	}
	return storageError(op, err)
}

func (c *StatusCatalog) flush(ctx context.Context) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Flush(ctx); err != nil {
		c.log.Warn("status cache flush failed", zap.Error(err))
	}
}
