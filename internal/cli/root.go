// Package cli implements blogctl, the maintenance command line of the blog.
package cli

import (
	"fmt"
	"strings"

	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type rootOptions struct {
	databasePath string
}

// NewRootCommand builds the blogctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "blogctl",
		Short:        "Maintenance commands for the blog database",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.databasePath, "database", "", "sqlite database path (defaults to DATABASE_PATH or the config file)")

	root.AddCommand(
		newMigrateCommand(opts),
		newUserCommand(opts),
		newSeedCommand(opts),
	)
	return root
}

// open loads the configuration and opens the migrated database.
func (o *rootOptions) open() (*gorm.DB, error) {
	path := strings.TrimSpace(o.databasePath)
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.DatabasePath
	}
	return db.Init(path, db.Silent())
}

func closeDB(gdb *gorm.DB) {
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := opts.open()
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
