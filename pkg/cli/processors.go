package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/funvibe/ember/internal/config"
	"github.com/funvibe/ember/internal/diagnostics"
	"github.com/funvibe/ember/internal/pipeline"
	"github.com/funvibe/ember/pkg/backend/memtable"
	"github.com/funvibe/ember/pkg/backend/sqlitedb"
	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

// BindProcessor opens every manifest source and publishes it as a symbol
// the parser can resolve. Sources are attached to their expression leaves,
// so the compute stage needs no separate scope wiring.
type BindProcessor struct {
	Manifest *Manifest
	// Dir is the manifest directory; relative source paths resolve
	// against it.
	Dir string
}

func (bp *BindProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	for i := range bp.Manifest.Sources {
		src := &bp.Manifest.Sources[i]
		node, err := bp.open(src)
		if err != nil {
			ctx.Errors = append(ctx.Errors, &diagnostics.Diagnostic{
				Code:    diagnostics.ErrB001,
				File:    ctx.File,
				Message: fmt.Sprintf("source %q: %s", src.Name, err),
			})
			continue
		}
		ctx.Symbols[src.Name] = node
	}
	return ctx
}

func (bp *BindProcessor) open(src *Source) (*expr.Node, error) {
	sh, err := src.RowShape()
	if err != nil {
		return nil, err
	}
	switch src.Kind {
	case config.SourceKindCSV:
		f, err := os.Open(bp.resolve(src.Path))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		tbl, err := memtable.FromCSV(f, sh, src.Header)
		if err != nil {
			return nil, err
		}
		return expr.FromData(src.Name, sh, tbl), nil

	case config.SourceKindSQLite:
		db, err := sqlitedb.Open(bp.resolve(src.Path))
		if err != nil {
			return nil, err
		}
		table := src.Table
		if table == "" {
			table = src.Name
		}
		return expr.FromData(src.Name, sh, sqlitedb.Attach(db, table, sh)), nil
	}
	return nil, fmt.Errorf("unknown kind %q", src.Kind)
}

func (bp *BindProcessor) resolve(path string) string {
	if filepath.IsAbs(path) || bp.Dir == "" {
		return path
	}
	return filepath.Join(bp.Dir, path)
}

// ComputeProcessor evaluates ctx.Expr and stores the materialized result.
type ComputeProcessor struct{}

func (cp *ComputeProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if len(ctx.Errors) > 0 || ctx.Expr == nil {
		return ctx
	}
	result, err := engine.Compute(ctx.Expr, ctx.Scope, ctx.Config)
	if err != nil {
		ctx.Errors = append(ctx.Errors, &diagnostics.Diagnostic{
			Code:    diagnostics.ErrR001,
			File:    ctx.File,
			Message: err.Error(),
		})
		return ctx
	}
	ctx.Result = result
	return ctx
}
