// Package query translates model-extracted video fields into a search request
// for the "videolists" collection.
package query

import (
	"strconv"
	"strings"
)

// Op is a filter comparator.
type Op string

const (
	OpEq  Op = ""
	OpLt  Op = "<"
	OpGt  Op = ">"
	OpLte Op = "<="
	OpGte Op = ">="
)

// Clause is one boolean condition over a numeric document field.
type Clause struct {
	Field string
	Op    Op
	Value int64
}

// String renders the clause in filter_by syntax, e.g. "released_date:<=1683849600".
func (c Clause) String() string {
	return c.Field + ":" + string(c.Op) + strconv.FormatInt(c.Value, 10)
}

// Filter is an ordered conjunction of clauses. The zero value matches everything.
type Filter []Clause

// String joins the clauses with "&&"; an empty filter renders as "".
func (f Filter) String() string {
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = c.String()
	}
	return strings.Join(parts, " && ")
}
