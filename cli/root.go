package cli

import (
	"errors"
	"fmt"

	"relationships/config"

	"github.com/spf13/cobra"
)

// Execute relctl 入口；命令失败时同样释放连接
func Execute() error {
	root, closeApp := newRootCmd(config.Load, newApp)
	defer closeApp()
	return root.Execute()
}

// newRootCmd 返回根命令和释放 App 的函数
// cobra 在 RunE 出错时跳过 PostRun，所以释放交给调用方
func newRootCmd(load func() *config.Config, open func(*config.Config) (*App, error)) (*cobra.Command, func()) {
	var app *App

	root := &cobra.Command{
		Use:           "relctl",
		Short:         "Manage identity relationships",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set")
			}
			var err error
			app, err = open(cfg)
			if err != nil {
				return fmt.Errorf("init: %w", err)
			}
			return nil
		},
	}

	getApp := func() *App { return app }

	root.AddCommand(
		newMigrateCmd(getApp),
		newStatusCmd(getApp),
		newAddCmd(getApp, true),
		newAddCmd(getApp, false),
		newExistsCmd(getApp),
		newListCmd(getApp),
	)
	closeApp := func() {
		if app != nil {
			app.Close()
			app = nil
		}
	}
	return root, closeApp
}
