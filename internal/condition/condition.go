// Package condition evaluates spawn-group gating conditions against a
// read-only world snapshot.
//
// Conditions are authored as (type, operator, value) strings and compiled by
// Parse into a closed set of typed variants, so malformed configuration is
// rejected at load time. Evaluate never fails: an unsupported combination
// evaluates to false.
package condition

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/udisondev/spawndirector/internal/model"
)

// Population bands reported by the world context provider.
const (
	BandEmpty  = "empty"
	BandLow    = "low"
	BandMedium = "medium"
	BandHigh   = "high"
)

// Context is an immutable world snapshot for one scheduling decision.
type Context struct {
	AreaResRef  string
	Now         time.Time
	Population  int
	AreaPlayers int
	Band        string
	Flags       map[string]string
}

// Kind names a condition variant.
type Kind string

const (
	KindTimeOfDay      Kind = "time_of_day"
	KindDayOfWeek      Kind = "day_of_week"
	KindPopulation     Kind = "population"
	KindAreaPlayers    Kind = "area_players"
	KindPopulationBand Kind = "population_band"
	KindAreaFlag       Kind = "area_flag"
)

// Condition is one of TimeOfDay, DayOfWeek, Population, AreaPlayers,
// PopulationBand or AreaFlag.
type Condition interface {
	Kind() Kind
	isCondition()
}

// NumericCmp compares an integer observation against literal values.
type NumericCmp struct {
	Op     Operator
	Values []int
}

func (c NumericCmp) match(x int) bool {
	if len(c.Values) == 0 {
		return false
	}
	v := c.Values[0]
	switch c.Op {
	case OpEq:
		return x == v
	case OpNe:
		return x != v
	case OpGt:
		return x > v
	case OpGe:
		return x >= v
	case OpLt:
		return x < v
	case OpLe:
		return x <= v
	case OpIn:
		return slices.Contains(c.Values, x)
	default:
		return false
	}
}

// StringCmp compares a string observation; only ==, != and in are defined.
type StringCmp struct {
	Op     Operator
	Values []string
}

func (c StringCmp) match(s string) bool {
	if len(c.Values) == 0 {
		return false
	}
	s = strings.ToLower(s)
	switch c.Op {
	case OpEq:
		return s == c.Values[0]
	case OpNe:
		return s != c.Values[0]
	case OpIn:
		return slices.Contains(c.Values, s)
	default:
		return false
	}
}

// TimeOfDay gates on the snapshot hour (0-23).
type TimeOfDay struct{ NumericCmp }

// DayOfWeek gates on the snapshot weekday (0 = Sunday).
type DayOfWeek struct{ NumericCmp }

// Population gates on the server-wide online player count.
type Population struct{ NumericCmp }

// AreaPlayers gates on the player count inside the area.
type AreaPlayers struct{ NumericCmp }

// PopulationBand gates on the coarse population band.
type PopulationBand struct{ StringCmp }

// AreaFlag gates on a named area flag; a missing flag reads as "".
type AreaFlag struct {
	Flag string
	StringCmp
}

func (TimeOfDay) Kind() Kind      { return KindTimeOfDay }
func (DayOfWeek) Kind() Kind      { return KindDayOfWeek }
func (Population) Kind() Kind     { return KindPopulation }
func (AreaPlayers) Kind() Kind    { return KindAreaPlayers }
func (PopulationBand) Kind() Kind { return KindPopulationBand }
func (AreaFlag) Kind() Kind       { return KindAreaFlag }

func (TimeOfDay) isCondition()      {}
func (DayOfWeek) isCondition()      {}
func (Population) isCondition()     {}
func (AreaPlayers) isCondition()    {}
func (PopulationBand) isCondition() {}
func (AreaFlag) isCondition()       {}

// Evaluate reports whether c holds for ctx.
func Evaluate(c Condition, ctx Context) bool {
	switch c := c.(type) {
	case TimeOfDay:
		return c.match(ctx.Now.Hour())
	case DayOfWeek:
		return c.match(int(ctx.Now.Weekday()))
	case Population:
		return c.match(ctx.Population)
	case AreaPlayers:
		return c.match(ctx.AreaPlayers)
	case PopulationBand:
		return c.match(ctx.Band)
	case AreaFlag:
		return c.match(ctx.Flags[c.Flag])
	default:
		return false
	}
}

// EvaluateAll is the AND of all conditions. An empty list is true.
func EvaluateAll(conds []Condition, ctx Context) bool {
	for _, c := range conds {
		if !Evaluate(c, ctx) {
			return false
		}
	}
	return true
}

// Parse compiles a stored condition row.
//
// Value formats:
//
//	time_of_day      "22" or "22,23,0" with in
//	day_of_week      "6", "saturday" or "saturday,sunday" with in
//	population       "50"
//	area_players     "0"
//	population_band  "high" or "medium,high" with in
//	area_flag        "siege:active" or "weather:rain,storm" with in
func Parse(sc model.SpawnCondition) (Condition, error) {
	op, err := ParseOperator(sc.Operator)
	if err != nil {
		return nil, fmt.Errorf("condition %d: %w", sc.ID, err)
	}

	var c Condition
	switch Kind(sc.Type) {
	case KindTimeOfDay:
		var n NumericCmp
		n, err = parseNumeric(op, sc.Value, 0, 23, nil)
		c = TimeOfDay{n}
	case KindDayOfWeek:
		var n NumericCmp
		n, err = parseNumeric(op, sc.Value, 0, 6, parseWeekday)
		c = DayOfWeek{n}
	case KindPopulation:
		var n NumericCmp
		n, err = parseNumeric(op, sc.Value, 0, -1, nil)
		c = Population{n}
	case KindAreaPlayers:
		var n NumericCmp
		n, err = parseNumeric(op, sc.Value, 0, -1, nil)
		c = AreaPlayers{n}
	case KindPopulationBand:
		var s StringCmp
		s, err = parseString(op, sc.Value)
		c = PopulationBand{s}
	case KindAreaFlag:
		flag, rest, ok := strings.Cut(sc.Value, ":")
		flag = strings.TrimSpace(flag)
		if !ok || flag == "" {
			return nil, fmt.Errorf("condition %d: area_flag value %q, want name:value: %w", sc.ID, sc.Value, model.ErrInvalidConfig)
		}
		var s StringCmp
		s, err = parseString(op, rest)
		c = AreaFlag{Flag: flag, StringCmp: s}
	default:
		return nil, fmt.Errorf("condition %d: unknown type %q: %w", sc.ID, sc.Type, model.ErrInvalidConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("condition %d (%s): %w", sc.ID, sc.Type, err)
	}
	return c, nil
}

func parseNumeric(op Operator, value string, lo, hi int, alt func(string) (int, bool)) (NumericCmp, error) {
	parts, err := splitValues(op, value)
	if err != nil {
		return NumericCmp{}, err
	}

	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil {
			var ok bool
			if alt == nil {
				return NumericCmp{}, fmt.Errorf("value %q is not a number: %w", p, model.ErrInvalidConfig)
			}
			if v, ok = alt(p); !ok {
				return NumericCmp{}, fmt.Errorf("value %q not recognised: %w", p, model.ErrInvalidConfig)
			}
		}
		if v < lo || (hi >= 0 && v > hi) {
			return NumericCmp{}, fmt.Errorf("value %d out of range: %w", v, model.ErrInvalidConfig)
		}
		vals = append(vals, v)
	}
	return NumericCmp{Op: op, Values: vals}, nil
}

func parseString(op Operator, value string) (StringCmp, error) {
	if op.Relational() {
		return StringCmp{}, fmt.Errorf("operator %s not defined for strings: %w", op, model.ErrInvalidConfig)
	}
	parts, err := splitValues(op, value)
	if err != nil {
		return StringCmp{}, err
	}
	return StringCmp{Op: op, Values: parts}, nil
}

func splitValues(op Operator, value string) ([]string, error) {
	var parts []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty value: %w", model.ErrInvalidConfig)
	}
	if op != OpIn && len(parts) > 1 {
		return nil, fmt.Errorf("operator %s takes one value, got %d: %w", op, len(parts), model.ErrInvalidConfig)
	}
	return parts, nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func parseWeekday(s string) (int, bool) {
	d, ok := weekdays[s]
	return int(d), ok
}
