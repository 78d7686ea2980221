// Package build synthesizes signatures for a batch of loaded functions.
package build

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/pgschema/plrustgen/internal/logger"
	"github.com/pgschema/plrustgen/internal/rust"
	"github.com/pgschema/plrustgen/internal/synth"
	"github.com/pgschema/plrustgen/ir"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome for one function. Exactly one of Signature and Err
// is set.
type Result struct {
	Function  *ir.Function
	Signature synth.Signature
	Err       error
}

// Builder runs a Synthesizer over many functions with bounded parallelism.
type Builder struct {
	synth       *synth.Synthesizer
	concurrency int
}

// Option configures a Builder.
type Option func(*Builder)

// WithConcurrency bounds how many functions are synthesized at once.
// Values below one select runtime.NumCPU().
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = runtime.NumCPU()
		}
		b.concurrency = n
	}
}

// New creates a Builder.
func New(s *synth.Synthesizer, opts ...Option) *Builder {
	b := &Builder{synth: s, concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build synthesizes every function. Results are returned in input order,
// whether or not synthesis succeeded. The error joins each per-function
// failure, plus the context error if ctx was cancelled before all
// functions were scheduled.
func (b *Builder) Build(ctx context.Context, fns []*ir.Function) ([]Result, error) {
	results := make([]Result, len(fns))

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	scheduled := 0
	for i, fn := range fns {
		if ctx.Err() != nil {
			break
		}
		scheduled++
		g.Go(func() error {
			results[i] = b.buildOne(fn)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i := range results[:scheduled] {
		if results[i].Err != nil {
			errs = append(errs, results[i].Err)
		}
	}
	if scheduled < len(fns) {
		for i, fn := range fns[scheduled:] {
			results[scheduled+i] = Result{Function: fn, Err: fmt.Errorf("%s: %w", fn.QualifiedName(), ctx.Err())}
		}
		errs = append(errs, fmt.Errorf("build cancelled after %d of %d functions: %w", scheduled, len(fns), ctx.Err()))
	}

	logger.Get().Debug("Built signatures", "functions", len(fns), "failed", len(errs))
	return results, errors.Join(errs...)
}

// buildOne fails a function whose name cannot be a Rust fn item, so the
// failure is counted before anything is rendered.
func (b *Builder) buildOne(fn *ir.Function) Result {
	if _, err := rust.EscapeIdent(fn.Name); err != nil {
		return Result{Function: fn, Err: fmt.Errorf("%s: function name: %w", fn.QualifiedName(), err)}
	}
	if fn.IsTrigger {
		return Result{Function: fn, Signature: b.synth.Trigger()}
	}
	sig, err := b.synth.Function(ShapeOf(fn))
	if err != nil {
		return Result{Function: fn, Err: fmt.Errorf("%s: %w", fn.QualifiedName(), declaredType(fn, err))}
	}
	return Result{Function: fn, Signature: sig}
}

// declaredType adds the SQL type name to resolution errors for types the
// loader could not name an OID for.
func declaredType(fn *ir.Function, err error) error {
	var synthErr *synth.Error
	if !errors.As(err, &synthErr) || synthErr.Kind != synth.ResolutionError || synthErr.TypeOID != ir.InvalidOID {
		return err
	}
	name := fn.ReturnType
	if !synthErr.Slot.Return && synthErr.Slot.Index < len(fn.Parameters) {
		name = fn.Parameters[synthErr.Slot.Index].DataType
	}
	return fmt.Errorf("%w (declared as %q)", err, name)
}

// ShapeOf extracts the synthesis input from a loaded function.
func ShapeOf(fn *ir.Function) synth.Shape {
	params := make([]synth.Param, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = synth.Param{TypeOID: p.TypeOID, Name: p.Name}
	}
	return synth.Shape{
		Params:     params,
		ReturnOID:  fn.ReturnTypeOID,
		ReturnsSet: fn.ReturnsSet,
		IsStrict:   fn.IsStrict,
	}
}
