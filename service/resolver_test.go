package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormIdentityResolver(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, username TEXT NOT NULL UNIQUE)").Error)
	for id, name := range map[uint]string{walrus: "Walrus", john: "John", paul: "Paul", yoko: "Yoko"} {
		require.NoError(t, db.Exec("INSERT INTO users (id, username) VALUES (?, ?)", id, name).Error)
	}

	resolver, err := NewGormIdentityResolver(db, "users", "id", "username")
	require.NoError(t, err)
	ctx := context.Background()

	identity, err := resolver.ResolveHandle(ctx, "Yoko")
	require.NoError(t, err)
	assert.Equal(t, yoko, identity.ID)
	assert.Equal(t, "Yoko", identity.Handle)

	// 区分大小写
	_, err = resolver.ResolveHandle(ctx, "yoko")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewGormIdentityResolver_RejectsBadIdentifiers(t *testing.T) {
	_, err := NewGormIdentityResolver(nil, "users; DROP TABLE users", "id", "username")
	assert.Error(t, err)
}

func TestTenantResolvers(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, uint(3), StaticTenant(3).CurrentTenant(ctx))
	assert.Equal(t, uint(1), ContextTenant{}.CurrentTenant(ctx))
	assert.Equal(t, uint(4), ContextTenant{Default: 4}.CurrentTenant(ctx))
	assert.Equal(t, uint(9), ContextTenant{Default: 4}.CurrentTenant(WithTenant(ctx, 9)))
}
