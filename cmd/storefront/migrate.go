package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the postgres cart slot migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseDSN == "" {
			return errors.New("STOREFRONT_DATABASE_DSN is not set")
		}
		return db.RunMigrations(cfg.DatabaseDSN, logger)
	},
}
