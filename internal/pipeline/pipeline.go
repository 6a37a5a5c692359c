// Package pipeline runs the query front end as a sequence of processing
// stages sharing one context.
package pipeline

import (
	"github.com/funvibe/ember/internal/diagnostics"
	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

// Context carries one query through the stages.
type Context struct {
	Query string
	File  string

	// Symbols maps source names to their expression leaves, filled by
	// the bind stage and consumed by the parser.
	Symbols map[string]*expr.Node

	Expr   *expr.Node
	Scope  *engine.Scope
	Config *engine.Config
	Result any

	Errors []*diagnostics.Diagnostic
}

func NewContext(query string) *Context {
	return &Context{
		Query:   query,
		Symbols: make(map[string]*expr.Node),
		Scope:   engine.NewScope(),
	}
}

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages keep running after errors so the
// caller sees diagnostics from every stage; stages that cannot proceed
// check ctx.Errors themselves.
func (p *Pipeline) Run(initialCtx *Context) *Context {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
