package store

import (
	"fmt"
	"strings"
)

// Assignments accumulates "column = $n" clauses for a partial UPDATE.
type Assignments struct {
	clauses []string
	args    []any
}

// Set appends an assignment of v to column.
func (a *Assignments) Set(column string, v any) {
	a.args = append(a.args, v)
	a.clauses = append(a.clauses, fmt.Sprintf("%s = $%d", column, len(a.args)))
}

// SetRaw appends an assignment whose right-hand side is a SQL expression
// with no arguments, e.g. now().
func (a *Assignments) SetRaw(column, expr string) {
	a.clauses = append(a.clauses, column+" = "+expr)
}

// Empty reports whether no column has been assigned.
func (a *Assignments) Empty() bool { return len(a.clauses) == 0 }

// Clause returns the comma-separated SET list.
func (a *Assignments) Clause() string { return strings.Join(a.clauses, ", ") }

// Where appends the arguments of a trailing WHERE clause and returns the
// placeholder index of the first one together with the full argument list.
func (a *Assignments) Where(args ...any) (int, []any) {
	next := len(a.args) + 1
	return next, append(append([]any{}, a.args...), args...)
}
