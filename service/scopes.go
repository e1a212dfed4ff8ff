package service

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OnlyIdentities 只保留 column 属于 ids 的记录；ids 为空时不匹配任何记录
func OnlyIdentities(column string, ids []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where(clause.IN{Column: clause.Column{Name: column}, Values: toValues(ids)})
	}
}

// ExcludeIdentities 排除 column 属于 ids 的记录；ids 为空时不过滤
func ExcludeIdentities(column string, ids []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db
		}
		return db.Not(clause.IN{Column: clause.Column{Name: column}, Values: toValues(ids)})
	}
}

func toValues(ids []uint) []interface{} {
	values := make([]interface{}, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return values
}

// FriendContent 好友发布的内容
func FriendContent(ctx context.Context, m *Manager, column string) (func(*gorm.DB) *gorm.DB, error) {
	ids, err := m.Friends(ctx)
	if err != nil {
		return nil, err
	}
	return OnlyIdentities(column, ids), nil
}

// FollowingContent 关注的人发布的内容
func FollowingContent(ctx context.Context, m *Manager, column string) (func(*gorm.DB) *gorm.DB, error) {
	ids, err := m.Following(ctx)
	if err != nil {
		return nil, err
	}
	return OnlyIdentities(column, ids), nil
}

// FollowersContent 粉丝发布的内容
func FollowersContent(ctx context.Context, m *Manager, column string) (func(*gorm.DB) *gorm.DB, error) {
	ids, err := m.Followers(ctx)
	if err != nil {
		return nil, err
	}
	return OnlyIdentities(column, ids), nil
}

// UnblockedContent 排除被自己拉黑的人发布的内容
func UnblockedContent(ctx context.Context, m *Manager, column string) (func(*gorm.DB) *gorm.DB, error) {
	ids, err := m.Blocking(ctx)
	if err != nil {
		return nil, err
	}
	return ExcludeIdentities(column, ids), nil
}
