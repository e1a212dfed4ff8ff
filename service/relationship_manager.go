package service

import (
	"context"

	"relationships/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Manager 绑定到某个身份（self）和站点的关系查询 / 变更
type Manager struct {
	svc    *RelationshipService
	self   uint
	tenant uint
}

func (m *Manager) IdentityID() uint {
	return m.self
}

func (m *Manager) TenantID() uint {
	return m.tenant
}

// resolve nil 表示默认的 following
func (m *Manager) resolve(ctx context.Context, status *model.RelationshipStatus) (*model.RelationshipStatus, error) {
	if status != nil {
		return status, nil
	}
	return m.svc.catalog.Following(ctx)
}

// Add 获取或创建 self -> other 关系，已存在时直接返回
func (m *Manager) Add(ctx context.Context, other uint, status *model.RelationshipStatus, opts ...AddOption) (*model.Relationship, error) {
	if other == m.self {
		return nil, ErrSelfRelationship
	}
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, err
	}

	weight := 1.0
	rel := &model.Relationship{
		FromIdentityID: m.self,
		ToIdentityID:   other,
		StatusID:       status.ID,
		TenantID:       m.tenant,
		Weight:         &weight,
	}
	for _, opt := range opts {
		opt(rel)
	}

	rel, created, err := m.svc.store.GetOrCreate(ctx, rel)
	if err != nil {
		return nil, err
	}
	if created {
		m.svc.log.Debug("relationship added",
			zap.Uint("from", m.self), zap.Uint("to", other),
			zap.String("status", status.FromSlug), zap.Uint("tenant", m.tenant))
	}
	return rel, nil
}

// AddSymmetrical 双向添加；第二次调用不再递归
// 两次写入不保证原子性，重试是安全的
func (m *Manager) AddSymmetrical(ctx context.Context, other uint, status *model.RelationshipStatus, opts ...AddOption) (*model.Relationship, *model.Relationship, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, nil, err
	}
	forward, err := m.Add(ctx, other, status, opts...)
	if err != nil {
		return nil, nil, err
	}
	backward, err := m.svc.For(other, m.tenant).Add(ctx, m.self, status, opts...)
	if err != nil {
		return forward, nil, err
	}
	return forward, backward, nil
}

// Remove 删除 self -> other 关系，不存在时返回 0
func (m *Manager) Remove(ctx context.Context, other uint, status *model.RelationshipStatus) (int64, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return 0, err
	}
	return m.svc.store.Delete(ctx, RelationshipFilter{
		FromIdentityID: m.self,
		ToIdentityID:   other,
		StatusID:       status.ID,
		TenantID:       m.tenant,
	})
}

// RemoveSymmetrical 双向删除
func (m *Manager) RemoveSymmetrical(ctx context.Context, other uint, status *model.RelationshipStatus) (int64, int64, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return 0, 0, err
	}
	forward, err := m.Remove(ctx, other, status)
	if err != nil {
		return 0, 0, err
	}
	backward, err := m.svc.For(other, m.tenant).Remove(ctx, m.self, status)
	if err != nil {
		return forward, 0, err
	}
	return forward, backward, nil
}

// Exists self -> other 是否存在关系；status 为 nil 时不限状态
func (m *Manager) Exists(ctx context.Context, other uint, status *model.RelationshipStatus) (bool, error) {
	f := RelationshipFilter{FromIdentityID: m.self, ToIdentityID: other, TenantID: m.tenant}
	if status != nil {
		f.StatusID = status.ID
	}
	return m.svc.store.Exists(ctx, f)
}

// ExistsSymmetrical 双向都存在
func (m *Manager) ExistsSymmetrical(ctx context.Context, other uint, status *model.RelationshipStatus) (bool, error) {
	ok, err := m.Exists(ctx, other, status)
	if err != nil || !ok {
		return false, err
	}
	return m.svc.For(other, m.tenant).Exists(ctx, m.self, status)
}

func (m *Manager) relations(ctx context.Context) *gorm.DB {
	return m.svc.db.WithContext(ctx).Model(&model.Relationship{}).Where("tenant_id = ?", m.tenant)
}

// forward self 指向的身份（子查询）
func (m *Manager) forward(ctx context.Context, status *model.RelationshipStatus) *gorm.DB {
	return m.relations(ctx).
		Select("to_identity_id").
		Where("from_identity_id = ? AND status_id = ?", m.self, status.ID)
}

// reverse 指向 self 的身份（子查询）
func (m *Manager) reverse(ctx context.Context, status *model.RelationshipStatus) *gorm.DB {
	return m.relations(ctx).
		Select("from_identity_id").
		Where("to_identity_id = ? AND status_id = ?", m.self, status.ID)
}

func pluckIDs(q *gorm.DB, column string) ([]uint, error) {
	ids := make([]uint, 0)
	if err := q.Order("created_at ASC").Pluck(column, &ids).Error; err != nil {
		return nil, storageError("query related identities", err)
	}
	return ids, nil
}

// GetRelationships self 指向的身份；symmetrical 时只保留同样指向 self 的
// 以下列表方法 status 为 nil 时同 Add 一样按 following 处理
func (m *Manager) GetRelationships(ctx context.Context, status *model.RelationshipStatus, symmetrical bool) ([]uint, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, err
	}
	q := m.forward(ctx, status)
	if symmetrical {
		q = q.Where("to_identity_id IN (?)", m.reverse(ctx, status))
	}
	return pluckIDs(q, "to_identity_id")
}

// GetRelatedTo 指向 self 的身份
func (m *Manager) GetRelatedTo(ctx context.Context, status *model.RelationshipStatus) ([]uint, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, err
	}
	return pluckIDs(m.reverse(ctx, status), "from_identity_id")
}

// GetSymmetrical 互相关联的身份
func (m *Manager) GetSymmetrical(ctx context.Context, status *model.RelationshipStatus) ([]uint, error) {
	return m.GetRelationships(ctx, status, true)
}

// OnlyTo 指向 self、但 self 没有回指的身份
func (m *Manager) OnlyTo(ctx context.Context, status *model.RelationshipStatus) ([]uint, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, err
	}
	q := m.reverse(ctx, status).Where("from_identity_id NOT IN (?)", m.forward(ctx, status))
	return pluckIDs(q, "from_identity_id")
}

// OnlyFrom self 指向、但对方没有回指的身份
func (m *Manager) OnlyFrom(ctx context.Context, status *model.RelationshipStatus) ([]uint, error) {
	status, err := m.resolve(ctx, status)
	if err != nil {
		return nil, err
	}
	q := m.forward(ctx, status).Where("to_identity_id NOT IN (?)", m.reverse(ctx, status))
	return pluckIDs(q, "to_identity_id")
}

// All self 发起的全部关系（不限站点）
func (m *Manager) All(ctx context.Context) ([]model.Relationship, error) {
	return m.svc.store.Find(ctx, RelationshipFilter{FromIdentityID: m.self})
}

// ListBySlug 按任意 slug 列出身份：from -> 正向，to -> 反向，symmetrical -> 双向
func (m *Manager) ListBySlug(ctx context.Context, slug string) (*model.RelationshipStatus, []uint, error) {
	status, dir, err := m.svc.catalog.BySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	var ids []uint
	switch dir {
	case DirectionFrom:
		ids, err = m.GetRelationships(ctx, status, false)
	case DirectionTo:
		ids, err = m.GetRelatedTo(ctx, status)
	default:
		ids, err = m.GetSymmetrical(ctx, status)
	}
	if err != nil {
		return nil, nil, err
	}
	return status, ids, nil
}

func (m *Manager) Following(ctx context.Context) ([]uint, error) {
	status, err := m.svc.catalog.Following(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetRelationships(ctx, status, false)
}

func (m *Manager) Followers(ctx context.Context) ([]uint, error) {
	status, err := m.svc.catalog.Following(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetRelatedTo(ctx, status)
}

func (m *Manager) Blocking(ctx context.Context) ([]uint, error) {
	status, err := m.svc.catalog.Blocking(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetRelationships(ctx, status, false)
}

func (m *Manager) Blockers(ctx context.Context) ([]uint, error) {
	status, err := m.svc.catalog.Blocking(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetRelatedTo(ctx, status)
}

// Friends 互相 following
func (m *Manager) Friends(ctx context.Context) ([]uint, error) {
	status, err := m.svc.catalog.Following(ctx)
	if err != nil {
		return nil, err
	}
	return m.GetRelationships(ctx, status, true)
}
