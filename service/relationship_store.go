package service

import (
	"context"
	"errors"

	"relationships/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipFilter 关系查询条件，零值表示不限
type RelationshipFilter struct {
	FromIdentityID uint
	ToIdentityID   uint
	StatusID       uint
	TenantID       uint
}

// Scope 作为 gorm scope 使用
func (f RelationshipFilter) Scope(db *gorm.DB) *gorm.DB {
	if f.FromIdentityID != 0 {
		db = db.Where("from_identity_id = ?", f.FromIdentityID)
	}
	if f.ToIdentityID != 0 {
		db = db.Where("to_identity_id = ?", f.ToIdentityID)
	}
	if f.StatusID != 0 {
		db = db.Where("status_id = ?", f.StatusID)
	}
	if f.TenantID != 0 {
		db = db.Where("tenant_id = ?", f.TenantID)
	}
	return db
}

// CreateHook 关系创建后、事务提交前执行
type CreateHook interface {
	AfterCreate(ctx context.Context, tx *StoreTx, rel *model.Relationship) error
}

// CreateHookFunc 函数形式的 CreateHook
type CreateHookFunc func(ctx context.Context, tx *StoreTx, rel *model.Relationship) error

func (f CreateHookFunc) AfterCreate(ctx context.Context, tx *StoreTx, rel *model.Relationship) error {
	return f(ctx, tx, rel)
}

// StoreTx 事务内的存储操作，记录被删除的关系用于提交后发布事件
type StoreTx struct {
	db      *gorm.DB
	removed []model.Relationship
}

// DB 事务连接
func (t *StoreTx) DB() *gorm.DB {
	return t.db
}

// Delete 删除匹配的关系
func (t *StoreTx) Delete(ctx context.Context, f RelationshipFilter) (int64, error) {
	var rows []model.Relationship
	if err := t.db.WithContext(ctx).Scopes(f.Scope).Find(&rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	result := t.db.WithContext(ctx).
		Where(clause.IN{Column: clause.PrimaryColumn, Values: ids}).
		Delete(&model.Relationship{})
	if result.Error != nil {
		return 0, result.Error
	}
	t.removed = append(t.removed, rows...)
	return result.RowsAffected, nil
}

// RelationshipStore relationship 表的增删查
type RelationshipStore struct {
	db        *gorm.DB
	hooks     []CreateHook
	publisher EventPublisher
	log       *zap.Logger
}

func NewRelationshipStore(db *gorm.DB, log *zap.Logger, hooks ...CreateHook) *RelationshipStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &RelationshipStore{db: db, hooks: hooks, log: log}
}

// SetEventPublisher 设置事件发布器（可选）
func (s *RelationshipStore) SetEventPublisher(p EventPublisher) {
	s.publisher = p
}

// Find 按 created_at 升序返回匹配的关系
func (s *RelationshipStore) Find(ctx context.Context, f RelationshipFilter) ([]model.Relationship, error) {
	var rows []model.Relationship
	err := s.db.WithContext(ctx).
		Scopes(f.Scope).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storageError("query relationships", err)
	}
	return rows, nil
}

// Count 匹配的关系数量
func (s *RelationshipStore) Count(ctx context.Context, f RelationshipFilter) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Relationship{}).Scopes(f.Scope).Count(&count).Error
	if err != nil {
		return 0, storageError("count relationships", err)
	}
	return count, nil
}

// Exists 是否存在匹配的关系
func (s *RelationshipStore) Exists(ctx context.Context, f RelationshipFilter) (bool, error) {
	var id int
	err := s.db.WithContext(ctx).Model(&model.Relationship{}).
		Scopes(f.Scope).
		Select("1").
		Limit(1).
		Scan(&id).Error
	if err != nil {
		return false, storageError("check relationship", err)
	}
	return id == 1, nil
}

// GetOrCreate 按 (from, to, status, tenant) 获取或创建关系
// 唯一约束冲突（并发创建）时重新读取一次
func (s *RelationshipStore) GetOrCreate(ctx context.Context, rel *model.Relationship) (*model.Relationship, bool, error) {
	key := RelationshipFilter{
		FromIdentityID: rel.FromIdentityID,
		ToIdentityID:   rel.ToIdentityID,
		StatusID:       rel.StatusID,
		TenantID:       rel.TenantID,
	}

	existing, err := s.first(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	removed, err := s.create(ctx, rel)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.log.Debug("relationship created concurrently, reading winner",
			zap.Uint("from", rel.FromIdentityID), zap.Uint("to", rel.ToIdentityID))
		existing, err := s.first(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, storageError("create relationship", errors.New("conflicting relationship vanished"))
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, storageError("create relationship", err)
	}

	s.publishCreated(ctx, rel)
	s.publishRemoved(ctx, removed)
	return rel, true, nil
}

func (s *RelationshipStore) create(ctx context.Context, rel *model.Relationship) ([]model.Relationship, error) {
	var removed []model.Relationship
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rel).Error; err != nil {
			return err
		}
		stx := &StoreTx{db: tx}
		for _, hook := range s.hooks {
			if err := hook.AfterCreate(ctx, stx, rel); err != nil {
				return err
			}
		}
		removed = stx.removed
		return nil
	})
	return removed, err
}

// Delete 删除匹配的关系，不存在时返回 0
func (s *RelationshipStore) Delete(ctx context.Context, f RelationshipFilter) (int64, error) {
	var (
		affected int64
		removed  []model.Relationship
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stx := &StoreTx{db: tx}
		n, err := stx.Delete(ctx, f)
		if err != nil {
			return err
		}
		affected, removed = n, stx.removed
		return nil
	})
	if err != nil {
		return 0, storageError("delete relationships", err)
	}

	s.publishRemoved(ctx, removed)
	return affected, nil
}

func (s *RelationshipStore) first(ctx context.Context, f RelationshipFilter) (*model.Relationship, error) {
	var rel model.Relationship
	err := s.db.WithContext(ctx).Scopes(f.Scope).Take(&rel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("query relationship", err)
	}
	return &rel, nil
}

// 事件发布失败只记录日志，写入已经提交
func (s *RelationshipStore) publishCreated(ctx context.Context, rel *model.Relationship) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishCreated(ctx, rel); err != nil {
		s.log.Warn("publish relationship created failed", zap.String("id", rel.ID.String()), zap.Error(err))
	}
}

func (s *RelationshipStore) publishRemoved(ctx context.Context, rows []model.Relationship) {
	if s.publisher == nil {
		return
	}
	for i := range rows {
		if err := s.publisher.PublishRemoved(ctx, &rows[i]); err != nil {
			s.log.Warn("publish relationship removed failed", zap.String("id", rows[i].ID.String()), zap.Error(err))
		}
	}
}
