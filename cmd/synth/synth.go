package synth

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pgschema/plrustgen/cmd/util"
	"github.com/pgschema/plrustgen/internal/build"
	"github.com/pgschema/plrustgen/internal/color"
	"github.com/pgschema/plrustgen/internal/config"
	"github.com/pgschema/plrustgen/internal/emit"
	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/resolve"
	plsynth "github.com/pgschema/plrustgen/internal/synth"
	"github.com/pgschema/plrustgen/ir"
	"github.com/spf13/cobra"
)

var (
	files       []string
	host        string
	port        int
	db          string
	user        string
	password    string
	appName     string
	schema      string
	language    string
	format      string
	output      string
	concurrency int
	noColor     bool

	// ConfigPath is bound to the root --config flag.
	ConfigPath string
)

var SynthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize PL/Rust function signatures",
	Long: `Synthesize the Rust signature of every PL/Rust function, either from SQL files
(--file) or from the functions installed in a database schema.

Non-strict functions take Option arguments. Every function returns
Result<Option<T>, Box<dyn Error>>, with a SetOfIterator for SETOF functions.
Trigger functions get the fixed trigger signature.`,
	RunE: runSynth,
}

func init() {
	SynthCmd.Flags().StringSliceVar(&files, "file", nil, "SQL file with CREATE FUNCTION statements (repeatable)")
	SynthCmd.Flags().StringVar(&host, "host", "", "Database server host (default: PGHOST or localhost)")
	SynthCmd.Flags().IntVar(&port, "port", 0, "Database server port (default: PGPORT or 5432)")
	SynthCmd.Flags().StringVar(&db, "db", "", "Database name (or PGDATABASE)")
	SynthCmd.Flags().StringVar(&user, "user", "", "Database user name (or PGUSER)")
	SynthCmd.Flags().StringVar(&password, "password", "", "Database password (or PGPASSWORD)")
	SynthCmd.Flags().StringVar(&appName, "application-name", "", "Application name reported to the server (or PGAPPNAME)")
	SynthCmd.Flags().StringVar(&schema, "schema", "public", "Schema to inspect, and default schema for unqualified functions")
	SynthCmd.Flags().StringVar(&language, "language", ir.DefaultLanguage, "Function language to select")
	SynthCmd.Flags().StringVar(&format, "format", string(emit.FormatText), "Output format: text, json or yaml")
	SynthCmd.Flags().StringVar(&output, "output", "", "Output file path (default: stdout)")
	SynthCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Functions synthesized in parallel (default: number of CPUs)")
	SynthCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored summary output")
}

// options is the effective configuration after merging flags and config.
type options struct {
	files       []string
	conn        util.ConnectionConfig
	schema      string
	language    string
	format      emit.Format
	concurrency int
	overrides   map[string]string
}

func runSynth(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := config.LoadConfig(ConfigPath)
	if err != nil {
		return err
	}
	if configPath != "" {
		logger.Get().Debug("Loaded config", "path", configPath)
	}

	opts, err := mergeOptions(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	return run(cmd.Context(), cmd, opts, out)
}

// mergeOptions applies flag > config (file and PLRUSTGEN_ env) > PG* env >
// defaults.
func mergeOptions(cmd *cobra.Command, cfg *config.Config) (*options, error) {
	flags := cmd.Flags()
	pick := func(flag, flagValue, cfgValue string) string {
		if flags.Changed(flag) || cfgValue == "" {
			return flagValue
		}
		return cfgValue
	}
	pickInt := func(flag string, flagValue, cfgValue int) int {
		if flags.Changed(flag) || cfgValue == 0 {
			return flagValue
		}
		return cfgValue
	}

	opts := &options{
		files:       files,
		schema:      pick("schema", schema, cfg.Schema),
		language:    pick("language", language, cfg.Language),
		concurrency: pickInt("concurrency", concurrency, cfg.Concurrency),
		overrides:   cfg.OverrideMap(),
		conn: util.ConnectionConfig{
			Host:            pick("host", host, cfg.Database.Host),
			Port:            pickInt("port", port, cfg.Database.Port),
			Database:        pick("db", db, cfg.Database.Name),
			User:            pick("user", user, cfg.Database.User),
			Password:        pick("password", password, cfg.Database.Password),
			ApplicationName: pick("application-name", appName, cfg.Database.ApplicationName),
			SSLMode:         "prefer",
		},
	}

	f, err := emit.ParseFormat(pick("format", format, cfg.Format))
	if err != nil {
		return nil, err
	}
	opts.format = f

	if len(opts.files) == 0 {
		util.ApplyPGEnv(cmd, &opts.conn)
		if err := opts.conn.Validate(); err != nil {
			return nil, fmt.Errorf("%w (or pass --file to read SQL files)", err)
		}
	}
	return opts, nil
}

// run loads functions, synthesizes their signatures and writes them to out.
// Output is written even when some functions fail; the returned error then
// lists every failure.
func run(ctx context.Context, cmd *cobra.Command, opts *options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	builtin := resolve.NewBuiltin()

	var (
		functions *ir.IR
		resolver  plsynth.TypeResolver = builtin
		namer     resolve.TypeNamer    = builtin
	)

	if len(opts.files) > 0 {
		parser := ir.NewParser(opts.schema, opts.language, builtin)
		for _, path := range opts.files {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			if functions, err = parser.ParseSQL(string(content)); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		functions.Metadata.Source = strings.Join(opts.files, ",")
	} else {
		conn, err := util.Connect(ctx, &opts.conn)
		if err != nil {
			return err
		}
		defer conn.Close()

		functions, err = ir.NewInspector(conn).BuildIR(ctx, opts.schema, opts.language)
		if err != nil {
			return fmt.Errorf("failed to build IR: %w", err)
		}

		catalog, err := resolve.LoadCatalog(ctx, conn, builtin, functions.TypeOIDs())
		if err != nil {
			return fmt.Errorf("failed to load type catalog: %w", err)
		}
		resolver, namer = catalog, catalog
	}

	if len(opts.overrides) > 0 {
		overrides, err := resolve.NewOverrides(resolver, opts.overrides, namer)
		if err != nil {
			return err
		}
		logger.Get().Debug("Applied type overrides", "count", overrides.Len())
		resolver = overrides
	}

	logger.Get().Debug("Synthesizing signatures",
		"source", functions.Metadata.Source,
		"language", functions.Metadata.Language,
		"functions", len(functions.Functions),
	)

	builder := build.New(plsynth.New(resolver), build.WithConcurrency(opts.concurrency))
	results, buildErr := builder.Build(ctx, functions.Functions)

	if err := emit.Write(out, opts.format, results); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), summarize(color.New(!noColor), results))
	if buildErr != nil {
		cmd.SilenceUsage = true
		return fmt.Errorf("some signatures could not be synthesized:\n%w", buildErr)
	}
	return nil
}

// summarize counts results by kind for the closing line on stderr.
func summarize(c *color.Color, results []build.Result) string {
	var functions, triggers, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Function.IsTrigger:
			triggers++
		default:
			functions++
		}
	}
	return c.Summary(functions, triggers, failed)
}
