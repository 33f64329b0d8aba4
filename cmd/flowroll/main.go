// Command flowroll runs the training log server and the maintenance
// commands that operate on its data file directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dave11k/flow-roll-app-sub001/internal/facade"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "flowroll",
	Short:   "A local-first training log for Brazilian jiu-jitsu.",
	Version: facade.ClientVersion,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the flowroll version and protocol version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowroll %s (protocol %s)\n", facade.ClientVersion, facade.ProtocolVersion)
	},
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Directory to search for config.yaml (defaults to . and $HOME/.flowroll)")

	rootCmd.AddCommand(serveCmd, migrateCmd, exportCmd, importCmd, versionCmd)
}

func main() {
	initCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
