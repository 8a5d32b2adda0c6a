package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosscrm/crm/internal/pipeline"
	"github.com/crosscrm/crm/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the default users, and optionally a demo pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, closeDB, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if demo {
				err = seed.All(ctx, s, pipeline.New(s, pipeline.WithLogger(a.log)))
			} else {
				err = seed.Seed(ctx, s)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return err
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "also load sample companies, contacts and deals into an empty database")
	return cmd
}
