package cmd

import (
	"fmt"
	"os"

	"github.com/pgschema/plrustgen/cmd/synth"
	"github.com/pgschema/plrustgen/cmd/types"
	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/version"
	"github.com/spf13/cobra"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "plrustgen",
	Short: "PL/Rust function signature generator",
	Long: fmt.Sprintf(`plrustgen derives the Rust signature of PL/Rust functions from their
PostgreSQL declaration.

Version: %s

Commands:
  synth   Synthesize signatures from SQL files or a database
  types   List built-in type mappings

Use "plrustgen [command] --help" for more information about a command.`,
		version.String()),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&synth.ConfigPath, "config", "", "Config file (default: plrustgen.yaml in the current directory or a parent)")
	RootCmd.AddCommand(synth.SynthCmd)
	RootCmd.AddCommand(types.TypesCmd)
	RootCmd.AddCommand(VersionCmd)
}

func setupLogger() {
	logger.Setup(os.Stderr, Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
