package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"relationships/config"
	"relationships/model"
	"relationships/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RequiresDatabaseURL(t *testing.T) {
	root, closeApp := newRootCmd(func() *config.Config { return &config.Config{} }, newApp)
	defer closeApp()
	root.SetArgs([]string{"migrate"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestRootCmd_ArgumentValidation(t *testing.T) {
	loaded := false
	root, closeApp := newRootCmd(func() *config.Config {
		loaded = true
		return &config.Config{}
	}, newApp)
	defer closeApp()
	root.SetArgs([]string{"exists", "John", "Paul"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 3 arg(s)")
	assert.False(t, loaded, "config should not load before args are validated")
}

func TestRootCmd_Commands(t *testing.T) {
	root, _ := newRootCmd(config.Load, newApp)

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "status", "add", "remove", "exists", "list"})

	status, _, err := root.Find([]string{"status", "create"})
	require.NoError(t, err)
	for _, flag := range []string{"name", "verb", "from", "to", "symmetrical", "login-required", "private"} {
		assert.NotNil(t, status.Flags().Lookup(flag), flag)
	}
}

// unknownIdentities 所有 handle 都解析失败
type unknownIdentities struct{}

func (unknownIdentities) ResolveHandle(ctx context.Context, handle string) (*model.Identity, error) {
	return nil, service.ErrIdentityNotFound
}

func TestRootCmd_ClosesAppWhenCommandFails(t *testing.T) {
	closed := 0
	open := func(cfg *config.Config) (*App, error) {
		app := &App{Config: cfg, Identities: unknownIdentities{}}
		app.onClose(func() { closed++ })
		return app, nil
	}
	root, closeApp := newRootCmd(func() *config.Config {
		return &config.Config{DatabaseURL: "postgres://unused"}
	}, open)
	root.SetArgs([]string{"list", "Nobody", "following"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	assert.ErrorIs(t, err, service.ErrIdentityNotFound)

	closeApp()
	closeApp()
	assert.Equal(t, 1, closed)
}

func TestRootCmd_OpenFailureIsReported(t *testing.T) {
	root, closeApp := newRootCmd(func() *config.Config {
		return &config.Config{DatabaseURL: "postgres://unused"}
	}, func(*config.Config) (*App, error) {
		return nil, errors.New("dial refused")
	})
	defer closeApp()
	root.SetArgs([]string{"migrate"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init: dial refused")
}

func TestApp_CloseRunsInReverseOrder(t *testing.T) {
	var order []string
	app := &App{}
	app.onClose(func() { order = append(order, "logger") })
	app.onClose(func() { order = append(order, "db") })
	app.onClose(func() { order = append(order, "redis") })

	app.Close()
	app.Close()
	assert.Equal(t, []string{"redis", "db", "logger"}, order)
}
