package parser

import (
	"github.com/funvibe/ember/internal/lexer"
	"github.com/funvibe/ember/internal/pipeline"
)

// ParserProcessor is the pipeline stage that parses ctx.Query into
// ctx.Expr. It requires ctx.Symbols to be populated first.
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.Context) *pipeline.Context {
	if len(ctx.Errors) > 0 {
		return ctx
	}
	p := New(lexer.New(ctx.Query), ctx)
	ctx.Expr = p.ParseQuery()
	for _, d := range ctx.Errors {
		if d.File == "" {
			d.File = ctx.File
		}
	}
	return ctx
}
