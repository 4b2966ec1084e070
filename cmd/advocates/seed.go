package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/advocates/internal/app"
	"github.com/simp-lee/advocates/internal/domain"
	"github.com/simp-lee/advocates/internal/module/advocate"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	var (
		ifEmpty bool
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all advocates with the bundled seed dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(root.configPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if migrate {
				if err := app.Migrate(s.db.WithContext(ctx)); err != nil {
					return err
				}
			}

			svc := advocate.NewAdvocateService(
				advocate.NewAdvocateRepository(s.db),
				advocate.WithLogger(s.log.Logger),
			)

			var res *domain.SeedResult
			if ifEmpty {
				res, err = svc.SeedIfEmpty(ctx)
			} else {
				res, err = svc.Seed(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res == nil {
				_, err = fmt.Fprintln(out, "advocates table already populated, nothing seeded")
				return err
			}
			_, err = fmt.Fprintf(out, "%s: %d advocates\n", res.Message, res.Count)
			return err
		},
	}

	cmd.Flags().BoolVar(&ifEmpty, "if-empty", false, "seed only when the table has no rows")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "migrate the table before seeding")
	return cmd
}
