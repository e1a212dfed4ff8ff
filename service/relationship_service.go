package service

import (
	"context"
	"encoding/json"

	"relationships/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RelationshipService 关系引擎入口：持有存储与状态目录，按身份生成 Manager
type RelationshipService struct {
	db      *gorm.DB
	store   *RelationshipStore
	catalog *StatusCatalog
	tenants TenantResolver
	log     *zap.Logger
}

func NewRelationshipService(db *gorm.DB, store *RelationshipStore, catalog *StatusCatalog, log *zap.Logger) *RelationshipService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RelationshipService{
		db:      db,
		store:   store,
		catalog: catalog,
		tenants: StaticTenant(model.DefaultTenantID),
		log:     log,
	}
}

// SetTenantResolver 设置当前站点解析器
func (s *RelationshipService) SetTenantResolver(r TenantResolver) {
	s.tenants = r
}

func (s *RelationshipService) Store() *RelationshipStore {
	return s.store
}

func (s *RelationshipService) Catalog() *StatusCatalog {
	return s.catalog
}

// For 绑定身份和站点
func (s *RelationshipService) For(identityID, tenantID uint) *Manager {
	return &Manager{svc: s, self: identityID, tenant: tenantID}
}

// ForContext 绑定身份，站点由 TenantResolver 决定
func (s *RelationshipService) ForContext(ctx context.Context, identityID uint) *Manager {
	return s.For(identityID, s.tenants.CurrentTenant(ctx))
}

// ExistsBySlug 按任意 slug 判断两个身份之间的关系：
// from_slug 看 from->to，to_slug 看 to->from，symmetrical_slug 要求双向都存在
func (s *RelationshipService) ExistsBySlug(ctx context.Context, fromID, toID, tenantID uint, slug string) (bool, error) {
	status, dir, err := s.catalog.BySlug(ctx, slug)
	if err != nil {
		return false, err
	}

	switch dir {
	case DirectionFrom:
		return s.For(fromID, tenantID).Exists(ctx, toID, status)
	case DirectionTo:
		return s.For(toID, tenantID).Exists(ctx, fromID, status)
	default:
		return s.For(fromID, tenantID).ExistsSymmetrical(ctx, toID, status)
	}
}

// AddOption Add 的可选参数
type AddOption func(*model.Relationship)

// WithExtraData 附加数据（不解析）
func WithExtraData(data json.RawMessage) AddOption {
	return func(r *model.Relationship) {
		r.ExtraData = data
	}
}

// WithWeight 权重（不解析，默认 1.0）
func WithWeight(weight float64) AddOption {
	return func(r *model.Relationship) {
		r.Weight = &weight
	}
}
