package cmd

import (
	"fmt"

	"github.com/pgschema/plrustgen/internal/version"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the version number of plrustgen",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "plrustgen v%s\n", version.String())
	},
}
