package condition

import (
	"fmt"
	"strings"

	"github.com/udisondev/spawndirector/internal/model"
)

// Operator is a comparison operator.
type Operator uint8

const (
	OpUnknown Operator = iota
	OpEq
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpIn
)

var operatorNames = map[string]Operator{
	"==": OpEq, "=": OpEq, "eq": OpEq,
	"!=": OpNe, "<>": OpNe, "ne": OpNe,
	">": OpGt, "gt": OpGt,
	">=": OpGe, "ge": OpGe, "gte": OpGe,
	"<": OpLt, "lt": OpLt,
	"<=": OpLe, "le": OpLe, "lte": OpLe,
	"in": OpIn,
}

// ParseOperator maps an authored operator to an Operator.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return OpUnknown, fmt.Errorf("unknown operator %q: %w", s, model.ErrInvalidConfig)
	}
	return op, nil
}

// Relational reports whether op orders values (>, >=, <, <=).
func (op Operator) Relational() bool {
	return op == OpGt || op == OpGe || op == OpLt || op == OpLe
}

func (op Operator) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpIn:
		return "in"
	default:
		return fmt.Sprintf("Operator(%d)", uint8(op))
	}
}
