package patch

import (
	"strings"
	"time"
)

type assignment struct {
	fragment string
	args     []any
}

// Builder collects column assignments in call order. Each fragment carries
// its own bound arguments so SET order and parameter order cannot diverge.
type Builder struct {
	table       string
	assignments []assignment
	stampColumn string
	stampAt     time.Time
}

// NewBuilder starts an UPDATE against table.
func NewBuilder(table string) *Builder {
	return &Builder{table: table}
}

// Add appends column when f is Set. Go methods cannot take type parameters,
// hence the free function.
func Add[T any](b *Builder, column string, f Field[T]) *Builder {
	fragment, ok := f.Assignment(column)
	if !ok {
		return b
	}
	b.assignments = append(b.assignments, assignment{
		fragment: fragment,
		args:     f.BindInto(nil),
	})
	return b
}

// Stamp sets column to at, but only if some other column is updated.
func (b *Builder) Stamp(column string, at time.Time) *Builder {
	b.stampColumn = column
	b.stampAt = at
	return b
}

// Len reports the number of Set fields collected so far.
func (b *Builder) Len() int {
	return len(b.assignments)
}

// Build renders the statement. ok is false when no field is Set; the caller
// must then skip storage entirely, since an empty SET list is invalid SQL.
func (b *Builder) Build(idColumn string, id any) (query string, args []any, ok bool) {
	if len(b.assignments) == 0 {
		return "", nil, false
	}

	fragments := make([]string, 0, len(b.assignments)+1)
	args = make([]any, 0, len(b.assignments)+2)
	for _, a := range b.assignments {
		fragments = append(fragments, a.fragment)
		args = append(args, a.args...)
	}
	if b.stampColumn != "" {
		fragments = append(fragments, b.stampColumn+" = ?")
		args = append(args, b.stampAt)
	}
	args = append(args, id)

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(fragments, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(idColumn)
	sb.WriteString(" = ?")

	return sb.String(), args, true
}
