package repository

import (
	"fmt"
	"strings"
)

type assignment struct {
	column string
	value  any
}

// updateBuilder assembles a single parameterized UPDATE statement. Column
// names must come from code, never from request input; values are always
// bound as $n placeholders.
type updateBuilder struct {
	table     string
	sets      []assignment
	where     []assignment
	returning string
}

func newUpdate(table string) *updateBuilder {
	return &updateBuilder{table: table}
}

func (b *updateBuilder) Set(column string, value any) *updateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// SetIf adds the assignment only when value is non-nil.
func (b *updateBuilder) SetIf(column string, value *string) *updateBuilder {
	if value != nil {
		b.Set(column, *value)
	}
	return b
}

func (b *updateBuilder) Where(column string, value any) *updateBuilder {
	b.where = append(b.where, assignment{column: column, value: value})
	return b
}

func (b *updateBuilder) Returning(columns string) *updateBuilder {
	b.returning = columns
	return b
}

func (b *updateBuilder) Build() (string, []any, error) {
	if len(b.sets) == 0 {
		return "", nil, fmt.Errorf("update %s: no columns to set", b.table)
	}
	if len(b.where) == 0 {
		return "", nil, fmt.Errorf("update %s: refusing to build unconditioned update", b.table)
	}

	args := make([]any, 0, len(b.sets)+len(b.where))
	sets := make([]string, 0, len(b.sets))
	for _, a := range b.sets {
		args = append(args, a.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", a.column, len(args)))
	}
	conds := make([]string, 0, len(b.where))
	for _, a := range b.where {
		args = append(args, a.value)
		conds = append(conds, fmt.Sprintf("%s = $%d", a.column, len(args)))
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.table)
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(sets, ", "))
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(conds, " AND "))
	if b.returning != "" {
		sb.WriteString(" RETURNING ")
		sb.WriteString(b.returning)
	}
	return sb.String(), args, nil
}
