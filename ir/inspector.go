package ir

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pgschema/plrustgen/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Inspector builds IR from the system catalogs of a live database
type Inspector struct {
	db *sql.DB
}

// NewInspector creates a new function inspector
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

// BuildIR loads every plain function in targetSchema written in language.
// Functions whose shape a PL/Rust signature cannot express are skipped with a
// warning.
func (i *Inspector) BuildIR(ctx context.Context, targetSchema, language string) (*IR, error) {
	if targetSchema == "" {
		targetSchema = "public"
	}
	if language == "" {
		language = DefaultLanguage
	}

	if err := i.validateSchemaExists(ctx, targetSchema); err != nil {
		return nil, err
	}

	schema := NewIR()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := i.buildMetadata(egCtx, schema); err != nil {
			return fmt.Errorf("failed to build metadata: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		if err := i.buildFunctions(egCtx, schema, targetSchema, language); err != nil {
			return fmt.Errorf("failed to build functions: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	schema.Metadata.Source = "database"
	schema.Metadata.Language = strings.ToLower(language)
	schema.Sort()
	return schema, nil
}

func (i *Inspector) buildMetadata(ctx context.Context, schema *IR) error {
	var dbVersion string
	if err := i.db.QueryRowContext(ctx, "SELECT version()").Scan(&dbVersion); err != nil {
		return err
	}

	// Extract version number from the version string
	if strings.Contains(dbVersion, "PostgreSQL") {
		parts := strings.Fields(dbVersion)
		if len(parts) >= 2 {
			dbVersion = "PostgreSQL " + parts[1]
		}
	}

	schema.mu.Lock()
	schema.Metadata.DatabaseVersion = dbVersion
	schema.mu.Unlock()
	return nil
}

const functionsQuery = `
SELECT
    p.oid::int8,
    n.nspname,
    p.proname,
    l.lanname,
    p.prosrc,
    p.prorettype::int8,
    format_type(p.prorettype, NULL),
    p.proretset,
    p.proisstrict,
    p.provolatile::text,
    p.proargtypes::oid[]::int8[],
    ARRAY(
        SELECT format_type(a.type_oid, NULL)
        FROM unnest(p.proargtypes) WITH ORDINALITY AS a(type_oid, n)
        ORDER BY a.n
    ),
    COALESCE(p.proargnames, '{}'::text[]),
    COALESCE(p.proargmodes::text[], '{}'::text[])
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_language l ON l.oid = p.prolang
WHERE n.nspname = $1
  AND lower(l.lanname) = lower($2)
  AND p.prokind = 'f'
  -- function is defined outside of any active extension
  AND NOT EXISTS (SELECT 1 FROM pg_catalog.pg_depend d WHERE d.objid = p.oid AND d.deptype = 'e')
ORDER BY n.nspname, p.proname, p.oid`

func (i *Inspector) buildFunctions(ctx context.Context, schema *IR, targetSchema, language string) error {
	rows, err := i.db.QueryContext(ctx, functionsQuery, targetSchema, language)
	if err != nil {
		return err
	}
	defer rows.Close()

	log := logger.Get()
	for rows.Next() {
		var (
			fn                 Function
			oid, returnOID     int64
			volatility         string
			argOIDs            []int64
			argTypes, argNames []string
			argModes           []string
		)
		if err := rows.Scan(
			&oid, &fn.Schema, &fn.Name, &fn.Language, &fn.Definition,
			&returnOID, &fn.ReturnType, &fn.ReturnsSet, &fn.IsStrict, &volatility,
			pq.Array(&argOIDs), pq.Array(&argTypes), pq.Array(&argNames), pq.Array(&argModes),
		); err != nil {
			return err
		}

		fn.OID = uint32(oid)
		fn.ReturnTypeOID = uint32(returnOID)
		fn.Volatility = volatilityName(volatility)
		fn.IsTrigger = fn.ReturnType == "trigger"

		// proargmodes is only set when some parameter is not IN
		if mode := firstNonInputMode(argModes); mode != "" {
			log.Warn("Skipping function with unsupported parameter mode", "function", fn.QualifiedName(), "mode", mode)
			continue
		}

		fn.Parameters = parametersFromProcArrays(argOIDs, argTypes, argNames)
		schema.AddFunction(&fn)
	}
	return rows.Err()
}

// firstNonInputMode returns the first proargmodes entry other than 'i'.
func firstNonInputMode(modes []string) string {
	for _, mode := range modes {
		switch mode {
		case "i":
		case "o":
			return "OUT"
		case "b":
			return "INOUT"
		case "v":
			return "VARIADIC"
		case "t":
			return "TABLE"
		default:
			return mode
		}
	}
	return ""
}

// parametersFromProcArrays zips proargtypes with proargnames. Names are
// absent for unnamed parameters.
func parametersFromProcArrays(oids []int64, types, names []string) []*Parameter {
	parameters := make([]*Parameter, len(oids))
	for idx, oid := range oids {
		param := &Parameter{
			TypeOID:  uint32(oid),
			Mode:     "IN",
			Position: idx + 1,
		}
		if idx < len(types) {
			param.DataType = types[idx]
		}
		if idx < len(names) {
			param.Name = names[idx]
		}
		parameters[idx] = param
	}
	return parameters
}

func (i *Inspector) validateSchemaExists(ctx context.Context, schemaName string) error {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM pg_namespace WHERE nspname = $1)"
	if err := i.db.QueryRowContext(ctx, query, schemaName).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check schema existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("schema %q does not exist", schemaName)
	}
	return nil
}
