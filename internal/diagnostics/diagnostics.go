// Package diagnostics provides coded, positional errors for the query
// front end.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/ember/internal/token"
)

type Code string

const (
	ErrL001 Code = "L001" // illegal character
	ErrP001 Code = "P001" // unexpected token
	ErrP002 Code = "P002" // unknown identifier
	ErrP003 Code = "P003" // bad call arguments
	ErrB001 Code = "B001" // source binding failure
	ErrR001 Code = "R001" // evaluation failure
)

type Diagnostic struct {
	Code    Code
	File    string
	Line    int
	Column  int
	Message string
}

func (d *Diagnostic) Error() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s [%s:%d:%d]: %s", d.Code, d.File, d.Line, d.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// NewError builds a diagnostic positioned at tok.
func NewError(code Code, tok token.Token, msg string) *Diagnostic {
	return &Diagnostic{Code: code, Line: tok.Line, Column: tok.Column, Message: msg}
}
