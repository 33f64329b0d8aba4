package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dave11k/flow-roll-app-sub001/internal/config"
	"github.com/dave11k/flow-roll-app-sub001/internal/migrate"
	"github.com/dave11k/flow-roll-app-sub001/internal/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the data file schema to the current version",
	Long: `Opens the data file and brings every record store up to the current
schema version. Records that cannot be transformed are moved to the
quarantine table rather than dropped. Running against an up-to-date
data file is a no-op. The serve command migrates on startup, so this
is only needed to upgrade a data file without serving.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := cfg.Log.NewLogger()

		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory %s: %w", cfg.Data.Dir, err)
		}
		backend, err := sqlite.New(cfg.Data.Path())
		if err != nil {
			return err
		}
		defer backend.Close()

		summaries, err := migrate.NewRunner(backend, logger).Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Schema version %d, %s:\n", migrate.CurrentSchemaVersion, cfg.Data.Path())
		for _, s := range summaries {
			if s.Migrated == 0 && s.Quarantined == 0 {
				fmt.Printf("  %-12s up to date\n", s.Component)
				continue
			}
			fmt.Printf("  %-12s from v%d: %d migrated, %d quarantined\n",
				s.Component, s.FromVersion, s.Migrated, s.Quarantined)
		}
		return nil
	},
}
