package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"relationships/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityResolver handle -> Identity（外部用户系统）
type IdentityResolver interface {
	ResolveHandle(ctx context.Context, handle string) (*model.Identity, error)
}

// TenantResolver 当前站点
type TenantResolver interface {
	CurrentTenant(ctx context.Context) uint
}

// StaticTenant 固定站点
type StaticTenant uint

func (t StaticTenant) CurrentTenant(context.Context) uint {
	return uint(t)
}

type tenantKey struct{}

// WithTenant 把站点 ID 放入 context
func WithTenant(ctx context.Context, tenantID uint) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// ContextTenant 从 context 读取站点，没有时使用 Default
type ContextTenant struct {
	Default uint
}

func (t ContextTenant) CurrentTenant(ctx context.Context) uint {
	if id, ok := ctx.Value(tenantKey{}).(uint); ok && id != 0 {
		return id
	}
	if t.Default == 0 {
		return model.DefaultTenantID
	}
	return t.Default
}

var _ IdentityResolver = (*GormIdentityResolver)(nil)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GormIdentityResolver 从外部用户表解析 handle（区分大小写）
type GormIdentityResolver struct {
	db           *gorm.DB
	table        string
	idColumn     string
	handleColumn string
}

func NewGormIdentityResolver(db *gorm.DB, table, idColumn, handleColumn string) (*GormIdentityResolver, error) {
	for _, name := range []string{table, idColumn, handleColumn} {
		if !identifierPattern.MatchString(name) {
			return nil, fmt.Errorf("invalid identifier %q", name)
		}
	}
	return &GormIdentityResolver{db: db, table: table, idColumn: idColumn, handleColumn: handleColumn}, nil
}

func (r *GormIdentityResolver) ResolveHandle(ctx context.Context, handle string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Table(r.table).
		Select(fmt.Sprintf("%s AS id, %s AS handle", r.idColumn, r.handleColumn)).
		Where(clause.Eq{Column: clause.Column{Name: r.handleColumn}, Value: handle}).
		Take(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrIdentityNotFound, handle)
	}
	if err != nil {
		return nil, storageError("resolve identity", err)
	}
	return &identity, nil
}
