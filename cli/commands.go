package cli

import (
	"fmt"
	"text/tabwriter"

	"relationships/model"
	"relationships/utils"

	"github.com/spf13/cobra"
)

func newMigrateCmd(getApp func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed the default statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			if err := utils.Migrate(utils.GetDB()); err != nil {
				return err
			}
			if err := app.Catalog.SeedDefaults(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newStatusCmd(getApp func() *App) *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect and edit relationship statuses",
	}

	statusCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List relationship statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := getApp().Catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			printStatuses(cmd, statuses)
			return nil
		},
	})

	var status model.RelationshipStatus
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a relationship status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := getApp().Catalog.Create(cmd.Context(), &status); err != nil {
				return err
			}
			printStatuses(cmd, []model.RelationshipStatus{status})
			return nil
		},
	}
	create.Flags().StringVar(&status.Name, "name", "", "display name")
	create.Flags().StringVar(&status.Verb, "verb", "", "unique verb, e.g. follow")
	create.Flags().StringVar(&status.FromSlug, "from", "", "slug seen from the initiator")
	create.Flags().StringVar(&status.ToSlug, "to", "", "slug seen from the target")
	create.Flags().StringVar(&status.SymmetricalSlug, "symmetrical", "", "slug for the mutual relation")
	create.Flags().BoolVar(&status.LoginRequired, "login-required", false, "only authenticated viewers")
	create.Flags().BoolVar(&status.Private, "private", false, "only the owner may view")
	statusCmd.AddCommand(create)

	return statusCmd
}

func printStatuses(cmd *cobra.Command, statuses []model.RelationshipStatus) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERB\tFROM\tTO\tSYMMETRICAL\tLOGIN\tPRIVATE")
	for _, s := range statuses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%t\t%t\n",
			s.ID, s.Name, s.Verb, s.FromSlug, s.ToSlug, s.SymmetricalSlug, s.LoginRequired, s.Private)
	}
	w.Flush()
}

// resolvePair 解析两个 handle
func resolvePair(cmd *cobra.Command, app *App, fromHandle, toHandle string) (*model.Identity, *model.Identity, error) {
	from, err := app.Identities.ResolveHandle(cmd.Context(), fromHandle)
	if err != nil {
		return nil, nil, err
	}
	to, err := app.Identities.ResolveHandle(cmd.Context(), toHandle)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func tenantOf(app *App, tenant uint) uint {
	if tenant == 0 {
		return app.Config.DefaultTenantID
	}
	return tenant
}

// newAddCmd add / remove
func newAddCmd(getApp func() *App, add bool) *cobra.Command {
	var (
		slug        string
		symmetrical bool
		tenant      uint
	)

	use, short := "add", "Add a relationship"
	if !add {
		use, short = "remove", "Remove a relationship"
	}

	cmd := &cobra.Command{
		Use:   use + " <from-handle> <to-handle>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			ctx := cmd.Context()

			from, to, err := resolvePair(cmd, app, args[0], args[1])
			if err != nil {
				return err
			}
			status, err := app.Catalog.ByFromSlug(ctx, slug)
			if err != nil {
				return err
			}
			m := app.Service.For(from.ID, tenantOf(app, tenant))

			if add {
				if symmetrical {
					_, _, err = m.AddSymmetrical(ctx, to.ID, status)
				} else {
					_, err = m.Add(ctx, to.ID, status)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", from.Handle, status.Verb, to.Handle)
				return nil
			}

			var removed int64
			if symmetrical {
				var back int64
				removed, back, err = m.RemoveSymmetrical(ctx, to.ID, status)
				removed += back
			} else {
				removed, err = m.Remove(ctx, to.ID, status)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", removed)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "status", model.SlugFollowing, "from_slug of the status")
	cmd.Flags().BoolVar(&symmetrical, "symmetrical", false, "apply in both directions")
	cmd.Flags().UintVar(&tenant, "tenant", 0, "tenant id (default DEFAULT_TENANT_ID)")
	return cmd
}

func newExistsCmd(getApp func() *App) *cobra.Command {
	var tenant uint
	cmd := &cobra.Command{
		Use:   "exists <from-handle> <to-handle> <slug>",
		Short: "Check a relationship by any status slug",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			from, to, err := resolvePair(cmd, app, args[0], args[1])
			if err != nil {
				return err
			}
			ok, err := app.Service.ExistsBySlug(cmd.Context(), from.ID, to.ID, tenantOf(app, tenant), args[2])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	cmd.Flags().UintVar(&tenant, "tenant", 0, "tenant id (default DEFAULT_TENANT_ID)")
	return cmd
}

func newListCmd(getApp func() *App) *cobra.Command {
	var tenant uint
	cmd := &cobra.Command{
		Use:   "list <handle> <slug>",
		Short: "List identities related by any status slug",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp()
			identity, err := app.Identities.ResolveHandle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			status, ids, err := app.Service.For(identity.ID, tenantOf(app, tenant)).ListBySlug(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %v\n", args[1], status.Name, ids)
			return nil
		},
	}
	cmd.Flags().UintVar(&tenant, "tenant", 0, "tenant id (default DEFAULT_TENANT_ID)")
	return cmd
}
