package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/advocates/internal/app"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the advocates table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(root.configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := app.Migrate(s.db.WithContext(cmd.Context())); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "advocates table migrated (%s)\n", s.cfg.Database.Driver)
			return err
		},
	}
}
