package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dave11k/flow-roll-app-sub001/internal/config"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the full data set to a JSON file",
	Long: `Writes the profile, all techniques, sessions and tags to a single
JSON document that a later import can restore.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := cfg.Log.NewLogger()
		ctx := cmd.Context()

		app, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.backend.Close()

		if err := app.exchanger.WriteFile(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Exported data set to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a previously exported JSON file",
	Long: `Restores a document produced by export. Each record is validated on
the way in; records that fail validation are reported and skipped
while the rest of the import proceeds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := cfg.Log.NewLogger()
		ctx := cmd.Context()

		app, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.backend.Close()

		summary, err := app.exchanger.ReadFile(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d records", summary.Imported)
		if summary.Failed > 0 {
			fmt.Printf(", %d failed", summary.Failed)
		}
		fmt.Println()
		for _, msg := range summary.Errors {
			fmt.Printf("  skipped %s\n", msg)
		}
		return nil
	},
}
