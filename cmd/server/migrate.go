package main

import (
	"github.com/spf13/cobra"
	"github.com/taskey/taskey-api/internal/config"
	"github.com/taskey/taskey-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}

		return database.MigrateDatabase(db)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
