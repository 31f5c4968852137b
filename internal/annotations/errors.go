package annotations

import (
	"errors"
	"strconv"
)

// ErrNotDirective is returned for comments that are not knockoff directives
var ErrNotDirective = errors.New("not a knockoff directive")

// Problem tells which check rejected a directive
type Problem int

const (
	// ProblemSyntax is a line the grammar rejects or an unknown kind
	ProblemSyntax Problem = iota
	// ProblemParameter is an unknown, missing, mistyped or invalid parameter
	ProblemParameter
	// ProblemSchema is a rule spanning several parameters
	ProblemSchema
)

func (p Problem) String() string {
	switch p {
	case ProblemSyntax:
		return "syntax error"
	case ProblemParameter:
		return "invalid parameter"
	default:
		return "invalid directive"
	}
}

// DirectiveError is a rejected //knockoff:: line or knockoff struct tag
type DirectiveError struct {
	Problem Problem
	Param   string // offending parameter, "#n" for the n-th positional value
	Msg     string
	Loc     SourceLocation
	Hint    string
}

func (e *DirectiveError) Error() string {
	msg := e.Loc.File + ":" + strconv.Itoa(e.Loc.Line) + ":" + strconv.Itoa(e.Loc.Column) + ": " + e.Problem.String()
	if e.Param != "" {
		msg += " " + e.Param
	}
	msg += ": " + e.Msg
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

func paramError(param, msg, hint string, loc SourceLocation) *DirectiveError {
	return &DirectiveError{Problem: ProblemParameter, Param: param, Msg: msg, Loc: loc, Hint: hint}
}
