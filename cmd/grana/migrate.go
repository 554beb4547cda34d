package main

import (
	"github.com/spf13/cobra"

	"github.com/granaflow/grana/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply learned-pattern database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cmd.Printf("Database at %s is up to date.\n", config.DatabasePath())
			return nil
		},
	}
}
