package ir

import (
	"errors"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/pgschema/plrustgen/internal/logger"
)

// DefaultLanguage is the function language loaders select when none is given.
const DefaultLanguage = "plrust"

// InvalidOID marks a parameter or return type whose name the TypeNamer does
// not know. No type has this OID, so resolving it fails for that function
// alone.
const InvalidOID uint32 = 0

// ErrUnsupportedFunction is returned for function forms a PL/Rust signature
// cannot express.
var ErrUnsupportedFunction = errors.New("unsupported function")

// TypeNamer maps an SQL type name, as written in a CREATE FUNCTION
// statement, to its OID.
type TypeNamer interface {
	LookupTypeName(name string) (uint32, bool)
}

// Parser handles parsing CREATE FUNCTION statements into IR representation
type Parser struct {
	schema        *IR
	defaultSchema string
	language      string
	types         TypeNamer
}

// NewParser creates a parser that keeps functions written in language and
// places unqualified functions in defaultSchema.
func NewParser(defaultSchema, language string, types TypeNamer) *Parser {
	if defaultSchema == "" {
		defaultSchema = "public"
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &Parser{
		schema:        NewIR(),
		defaultSchema: defaultSchema,
		language:      strings.ToLower(language),
		types:         types,
	}
}

// ParseSQL parses SQL content and returns the IR representation. Statements
// other than CREATE FUNCTION, and functions in other languages, are skipped.
// ParseSQL may be called repeatedly to accumulate several files.
func (p *Parser) ParseSQL(sqlContent string) (*IR, error) {
	statements, err := p.splitSQLStatements(sqlContent)
	if err != nil {
		return nil, fmt.Errorf("failed to split SQL statements: %w", err)
	}

	for _, stmt := range statements {
		if err := p.parseStatement(stmt); err != nil {
			return nil, fmt.Errorf("failed to parse statement: %w", err)
		}
	}

	p.schema.Metadata.Language = p.language
	return p.schema, nil
}

// splitSQLStatements splits SQL content into individual statements using pg_query_go
func (p *Parser) splitSQLStatements(sqlContent string) ([]string, error) {
	return pg_query.SplitWithParser(sqlContent, true) // trimSpace = true
}

// parseStatement parses a single SQL statement
func (p *Parser) parseStatement(stmt string) error {
	result, err := pg_query.Parse(stmt)
	if err != nil {
		return fmt.Errorf("pg_query parse error: %w. Statement: %q", err, stmt)
	}

	for _, parsedStmt := range result.Stmts {
		if parsedStmt.Stmt == nil {
			continue
		}
		if node, ok := parsedStmt.Stmt.Node.(*pg_query.Node_CreateFunctionStmt); ok {
			if err := p.parseCreateFunction(node.CreateFunctionStmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) parseCreateFunction(funcStmt *pg_query.CreateFunctionStmt) error {
	language := p.extractFunctionLanguageFromAST(funcStmt)
	if language != p.language {
		return nil
	}

	schemaName, funcName := p.extractFunctionName(funcStmt)
	if funcName == "" {
		return nil // Skip if we can't determine function name
	}
	qualified := schemaName + "." + funcName

	if funcStmt.IsProcedure {
		return fmt.Errorf("%w: %s is a procedure", ErrUnsupportedFunction, qualified)
	}

	parameters, err := p.extractFunctionParametersFromAST(funcStmt)
	if err != nil {
		return fmt.Errorf("function %s: %w", qualified, err)
	}

	function := &Function{
		Schema:     schemaName,
		Name:       funcName,
		Language:   language,
		Definition: p.extractFunctionDefinitionFromAST(funcStmt),
		Parameters: parameters,
		Volatility: p.extractFunctionVolatilityFromAST(funcStmt),
		IsStrict:   p.extractFunctionStrictFromAST(funcStmt),
	}

	if err := p.extractFunctionReturnTypeFromAST(funcStmt, function); err != nil {
		return fmt.Errorf("function %s: %w", qualified, err)
	}

	p.schema.AddFunction(function)
	return nil
}

func (p *Parser) extractFunctionName(funcStmt *pg_query.CreateFunctionStmt) (schema, name string) {
	schema = p.defaultSchema
	for i, nameNode := range funcStmt.Funcname {
		if str := nameNode.GetString_(); str != nil {
			if i == 0 && len(funcStmt.Funcname) > 1 {
				schema = str.Sval
			} else {
				name = str.Sval
			}
		}
	}
	return schema, name
}

// extractFunctionReturnTypeFromAST fills the return type, set and trigger
// flags of fn.
func (p *Parser) extractFunctionReturnTypeFromAST(funcStmt *pg_query.CreateFunctionStmt, fn *Function) error {
	returnType := funcStmt.ReturnType
	if returnType == nil {
		// No RETURNS clause means OUT parameters, which were already rejected.
		return fmt.Errorf("%w: missing return type", ErrUnsupportedFunction)
	}

	fn.ReturnType = p.parseTypeName(returnType)
	fn.ReturnsSet = returnType.Setof

	fn.ReturnTypeOID = p.lookupType(fn.ReturnType)
	fn.IsTrigger = fn.ReturnType == "trigger"
	if fn.IsTrigger && (fn.ReturnsSet || len(fn.Parameters) > 0) {
		return fmt.Errorf("%w: trigger functions take no arguments and return a single trigger", ErrUnsupportedFunction)
	}
	return nil
}

// lookupType returns the OID of a type name, or InvalidOID if it is unknown.
func (p *Parser) lookupType(name string) uint32 {
	oid, ok := p.types.LookupTypeName(name)
	if !ok {
		logger.Get().Debug("Unknown type name", "type", name)
		return InvalidOID
	}
	return oid
}

// extractFunctionLanguageFromAST extracts language from CreateFunctionStmt AST
func (p *Parser) extractFunctionLanguageFromAST(funcStmt *pg_query.CreateFunctionStmt) string {
	for _, option := range funcStmt.Options {
		if defElem := option.GetDefElem(); defElem != nil && defElem.Defname == "language" && defElem.Arg != nil {
			if strVal := p.extractStringValue(defElem.Arg); strVal != "" {
				return strings.ToLower(strVal)
			}
		}
	}
	return "sql" // Default language
}

// extractFunctionDefinitionFromAST extracts function body from CreateFunctionStmt AST
func (p *Parser) extractFunctionDefinitionFromAST(funcStmt *pg_query.CreateFunctionStmt) string {
	for _, option := range funcStmt.Options {
		defElem := option.GetDefElem()
		if defElem == nil || defElem.Defname != "as" || defElem.Arg == nil {
			continue
		}
		// Body is a list of strings; C functions carry (obj_file, link_symbol)
		if listNode := defElem.Arg.GetList(); listNode != nil {
			var bodyParts []string
			for _, item := range listNode.Items {
				if strVal := p.extractStringValue(item); strVal != "" {
					bodyParts = append(bodyParts, strVal)
				}
			}
			return strings.Join(bodyParts, "\n")
		}
		return p.extractStringValue(defElem.Arg)
	}
	return ""
}

// extractFunctionParametersFromAST extracts IN parameters; any other mode
// changes the shape of the result and is rejected.
func (p *Parser) extractFunctionParametersFromAST(funcStmt *pg_query.CreateFunctionStmt) ([]*Parameter, error) {
	var parameters []*Parameter

	for _, param := range funcStmt.Parameters {
		funcParam := param.GetFunctionParameter()
		if funcParam == nil {
			continue
		}

		switch funcParam.Mode {
		case pg_query.FunctionParameterMode_FUNC_PARAM_IN, pg_query.FunctionParameterMode_FUNC_PARAM_DEFAULT:
		case pg_query.FunctionParameterMode_FUNC_PARAM_OUT:
			return nil, fmt.Errorf("%w: OUT parameter %q", ErrUnsupportedFunction, funcParam.Name)
		case pg_query.FunctionParameterMode_FUNC_PARAM_INOUT:
			return nil, fmt.Errorf("%w: INOUT parameter %q", ErrUnsupportedFunction, funcParam.Name)
		case pg_query.FunctionParameterMode_FUNC_PARAM_VARIADIC:
			return nil, fmt.Errorf("%w: VARIADIC parameter %q", ErrUnsupportedFunction, funcParam.Name)
		case pg_query.FunctionParameterMode_FUNC_PARAM_TABLE:
			return nil, fmt.Errorf("%w: RETURNS TABLE", ErrUnsupportedFunction)
		default:
			return nil, fmt.Errorf("%w: parameter mode %s", ErrUnsupportedFunction, funcParam.Mode)
		}

		parameter := &Parameter{
			Name:     funcParam.Name,
			Mode:     "IN",
			Position: len(parameters) + 1,
		}
		if funcParam.ArgType != nil {
			parameter.DataType = p.parseTypeName(funcParam.ArgType)
		}

		parameter.TypeOID = p.lookupType(parameter.DataType)

		parameters = append(parameters, parameter)
	}

	return parameters, nil
}

// extractFunctionVolatilityFromAST extracts volatility from CreateFunctionStmt AST
func (p *Parser) extractFunctionVolatilityFromAST(funcStmt *pg_query.CreateFunctionStmt) string {
	for _, option := range funcStmt.Options {
		defElem := option.GetDefElem()
		if defElem == nil || defElem.Defname != "volatility" || defElem.Arg == nil {
			continue
		}
		if str := defElem.Arg.GetString_(); str != nil {
			return volatilityName(str.Sval)
		}
	}
	return "VOLATILE" // Default
}

// volatilityName maps pg_query spellings and pg_proc.provolatile codes.
func volatilityName(v string) string {
	switch v {
	case "immutable", "i":
		return "IMMUTABLE"
	case "stable", "s":
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

// extractFunctionStrictFromAST extracts strict flag from CreateFunctionStmt AST.
// STRICT and RETURNS NULL ON NULL INPUT both set it; CALLED ON NULL INPUT
// clears it.
func (p *Parser) extractFunctionStrictFromAST(funcStmt *pg_query.CreateFunctionStmt) bool {
	strict := false
	for _, option := range funcStmt.Options {
		defElem := option.GetDefElem()
		if defElem == nil || defElem.Defname != "strict" {
			continue
		}
		if defElem.Arg == nil {
			strict = true
		} else if boolean := defElem.Arg.GetBoolean(); boolean != nil {
			strict = boolean.Boolval
		}
	}
	return strict
}

// parseTypeName renders a type the way it was written, minus modifiers and a
// pg_catalog qualifier.
func (p *Parser) parseTypeName(typeName *pg_query.TypeName) string {
	var typeNameParts []string
	for _, name := range typeName.Names {
		if str := name.GetString_(); str != nil {
			typeNameParts = append(typeNameParts, str.Sval)
		}
	}
	if len(typeNameParts) > 1 && typeNameParts[0] == "pg_catalog" {
		typeNameParts = typeNameParts[1:]
	}

	dataType := strings.Join(typeNameParts, ".")
	if len(typeName.ArrayBounds) > 0 {
		dataType += "[]"
	}
	return dataType
}

// extractStringValue extracts string value from a String node
func (p *Parser) extractStringValue(node *pg_query.Node) string {
	if str := node.GetString_(); str != nil {
		return str.Sval
	}
	if aConst := node.GetAConst(); aConst != nil {
		if sval := aConst.GetSval(); sval != nil {
			return sval.Sval
		}
	}
	return ""
}
