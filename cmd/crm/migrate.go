package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crosscrm/crm/internal/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, closeDB, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			v, err := database.Version(cmd.Context(), s.DB)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return err
		},
	}
}
