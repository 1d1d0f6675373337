package domain

import "strconv"

// FilterOp is a comparison operator in a metadata filter condition.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNe  FilterOp = "ne"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
)

// Filterable passage fields.
const (
	FieldSource  = "source"
	FieldOrdinal = "ordinal"
)

// Condition is one (field, operator, value) leaf of a filter.
// Ordering operators compare ordinals numerically and sources
// lexicographically. OpIn uses Values; all other operators use Value.
type Condition struct {
	Field  string
	Op     FilterOp
	Value  string
	Values []string
}

// Filter is a conjunction of conditions evaluated against a passage.
type Filter struct {
	Conditions []Condition
}

// Matches reports whether every condition holds for the passage.
// Conditions on unknown fields never match.
func (f *Filter) Matches(p Passage) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Conditions {
		if !c.matches(p) {
			return false
		}
	}
	return true
}

func (c Condition) matches(p Passage) bool {
	switch c.Field {
	case FieldSource:
		return c.compareString(p.Source)
	case FieldOrdinal:
		return c.compareInt(p.Ordinal)
	default:
		return false
	}
}

func (c Condition) compareString(v string) bool {
	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	case OpGt:
		return v > c.Value
	case OpGte:
		return v >= c.Value
	case OpLt:
		return v < c.Value
	case OpLte:
		return v <= c.Value
	case OpIn:
		for _, want := range c.Values {
			if v == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (c Condition) compareInt(v int) bool {
	if c.Op == OpIn {
		for _, want := range c.Values {
			if n, err := strconv.Atoi(want); err == nil && n == v {
				return true
			}
		}
		return false
	}

	n, err := strconv.Atoi(c.Value)
	if err != nil {
		return false
	}
	switch c.Op {
	case OpEq:
		return v == n
	case OpNe:
		return v != n
	case OpGt:
		return v > n
	case OpGte:
		return v >= n
	case OpLt:
		return v < n
	case OpLte:
		return v <= n
	default:
		return false
	}
}
