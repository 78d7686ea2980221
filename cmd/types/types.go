package types

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pgschema/plrustgen/internal/emit"
	"github.com/pgschema/plrustgen/internal/resolve"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var format string

var TypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List built-in type mappings",
	Long:  "List the Rust type used for each built-in PostgreSQL type, as an argument and as a return value. Arrays of these types map to ::pgx::Array<'a, T> and Vec<Option<T>>.",
	RunE:  runTypes,
}

func init() {
	TypesCmd.Flags().StringVar(&format, "format", string(emit.FormatText), "Output format: text, json or yaml")
}

func runTypes(cmd *cobra.Command, args []string) error {
	f, err := emit.ParseFormat(format)
	if err != nil {
		return err
	}
	return writeMappings(cmd.OutOrStdout(), f, resolve.NewBuiltin().Mappings())
}

func writeMappings(w io.Writer, f emit.Format, rows []resolve.Mapping) error {
	switch f {
	case emit.FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case emit.FormatYAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tOID\tARGUMENT\tRETURN")
	for _, row := range rows {
		argument := row.Argument
		if argument == "" {
			argument = "-"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", row.Name, row.OID, argument, row.Return)
	}
	return tw.Flush()
}
