package service

import (
	"context"
	"errors"

	"relationships/model"

	"go.uber.org/zap"
)

// ExclusiveStatusHook 两个互斥状态（默认 following / blocking）：
// 创建其中一个时，删除同一 (from, to, tenant) 上的另一个
type ExclusiveStatusHook struct {
	catalog *StatusCatalog
	first   string // from_slug
	second  string
	log     *zap.Logger
}

// NewExclusiveStatusHook 默认使用 following 和 blocking
func NewExclusiveStatusHook(catalog *StatusCatalog, log *zap.Logger) *ExclusiveStatusHook {
	return NewExclusiveStatusHookFor(catalog, model.SlugFollowing, model.SlugBlocking, log)
}

// NewExclusiveStatusHookFor 指定互斥状态的 from_slug
func NewExclusiveStatusHookFor(catalog *StatusCatalog, first, second string, log *zap.Logger) *ExclusiveStatusHook {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExclusiveStatusHook{catalog: catalog, first: first, second: second, log: log}
}

func (h *ExclusiveStatusHook) AfterCreate(ctx context.Context, tx *StoreTx, rel *model.Relationship) error {
	catalog := h.catalog.Using(tx.DB())

	first, err := catalog.ByFromSlug(ctx, h.first)
	if err != nil {
		return h.missing(err)
	}
	second, err := catalog.ByFromSlug(ctx, h.second)
	if err != nil {
		return h.missing(err)
	}

	var other uint
	switch rel.StatusID {
	case first.ID:
		other = second.ID
	case second.ID:
		other = first.ID
	default:
		return nil
	}

	n, err := tx.Delete(ctx, RelationshipFilter{
		FromIdentityID: rel.FromIdentityID,
		ToIdentityID:   rel.ToIdentityID,
		StatusID:       other,
		TenantID:       rel.TenantID,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		h.log.Debug("retracted conflicting relationship",
			zap.Uint("from", rel.FromIdentityID),
			zap.Uint("to", rel.ToIdentityID),
			zap.Uint("status", other),
			zap.Uint("tenant", rel.TenantID))
	}
	return nil
}

// missing 状态不在目录中时不做处理
func (h *ExclusiveStatusHook) missing(err error) error {
	if errors.Is(err, ErrNotFound) {
		h.log.Warn("exclusive statuses not configured, skipping",
			zap.String("first", h.first), zap.String("second", h.second))
		return nil
	}
	return err
}
