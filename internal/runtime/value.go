// Package runtime defines the value model FHIRPath evaluates over
// ("everything is a collection", §9) and the RuntimeContext threaded
// through every evaluation step (§3.6). It is the FHIRPath-scoped
// replacement for the teacher's internal/evaluator object model
// (Nil/Boolean/Integer/Float/Tuple/... implementing a shared Object
// interface) — same tagged-variant idiom, different tag set matching
// spec §3.4's PrimitiveKind list plus composite/reference values for
// navigating FHIR JSON.
package runtime

import (
	"fmt"
	"sort"

	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Value is any single FHIRPath value. Every concrete type below implements
// it; Collection is always []Value, never a nested Value.
type Value interface {
	Kind() typesystem.PrimitiveKind
	// Equal implements FHIRPath "=" value equality.
	Equal(other Value) bool
	// String renders the value for toString()/diagnostics.
	String() string
}

// Collection is the universal result shape: every value-carrying node
// returns one. A singleton is a Collection of length 1; Empty is nil.
type Collection []Value

// Empty is the canonical zero collection.
var Empty Collection

// Single wraps one value as a singleton collection.
func Single(v Value) Collection {
	if v == nil {
		return Empty
	}
	return Collection{v}
}

// IsEmpty reports whether c has no elements.
func (c Collection) IsEmpty() bool { return len(c) == 0 }

// IsSingleton reports whether c has exactly one element.
func (c Collection) IsSingleton() bool { return len(c) == 1 }

// Concat appends b after a, returning a new Collection.
func Concat(cs ...Collection) Collection {
	var total int
	for _, c := range cs {
		total += len(c)
	}
	if total == 0 {
		return Empty
	}
	out := make(Collection, 0, total)
	for _, c := range cs {
		out = append(out, c...)
	}
	return out
}

// Dedup returns a copy of c with later duplicate elements (by value
// equality) removed, preserving the order of first occurrence. Used by the
// `|` union operator; `combine()` must NOT call this.
func Dedup(c Collection) Collection {
	out := make(Collection, 0, len(c))
	for _, v := range c {
		dup := false
		for _, seen := range out {
			if seen.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// Boolean is a FHIRPath boolean value.
type Boolean struct{ Value bool }

func (b Boolean) Kind() typesystem.PrimitiveKind { return typesystem.Boolean }
func (b Boolean) String() string                 { return fmt.Sprintf("%t", b.Value) }
func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && o.Value == b.Value
}

// String is a FHIRPath string value.
type String struct{ Value string }

func (s String) Kind() typesystem.PrimitiveKind { return typesystem.String }
func (s String) String() string                 { return s.Value }
func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o.Value == s.Value
}

// Integer is a FHIRPath Integer value.
type Integer struct{ Value int64 }

func (i Integer) Kind() typesystem.PrimitiveKind { return typesystem.Integer }
func (i Integer) String() string                 { return fmt.Sprintf("%d", i.Value) }
func (i Integer) Equal(other Value) bool {
	switch o := other.(type) {
	case Integer:
		return o.Value == i.Value
	case Decimal:
		return o.Value == float64(i.Value)
	}
	return false
}

// Decimal is a FHIRPath Decimal value.
type Decimal struct{ Value float64 }

func (d Decimal) Kind() typesystem.PrimitiveKind { return typesystem.Decimal }
func (d Decimal) String() string                 { return fmt.Sprintf("%g", d.Value) }
func (d Decimal) Equal(other Value) bool {
	switch o := other.(type) {
	case Decimal:
		return o.Value == d.Value
	case Integer:
		return float64(o.Value) == d.Value
	}
	return false
}

// Date is a FHIRPath Date value (calendar precision may be year/month/day;
// Precision records how many components were given).
type Date struct {
	Year, Month, Day int
	Precision        int // 1=year, 2=year-month, 3=full date
}

func (d Date) Kind() typesystem.PrimitiveKind { return typesystem.Date }
func (d Date) String() string {
	switch d.Precision {
	case 1:
		return fmt.Sprintf("%04d", d.Year)
	case 2:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}
func (d Date) Equal(other Value) bool {
	o, ok := other.(Date)
	return ok && o == d
}

// DateTime is a FHIRPath DateTime value.
type DateTime struct {
	Year, Month, Day, Hour, Minute, Second int
	Millisecond                            int
	HasTimezone                            bool
	TZOffsetMinutes                        int
	Precision                              int // 1..7, how many components given
}

func (d DateTime) Kind() typesystem.PrimitiveKind { return typesystem.DateTime }
func (d DateTime) String() string {
	s := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
	if d.Millisecond != 0 {
		s += fmt.Sprintf(".%03d", d.Millisecond)
	}
	if d.HasTimezone {
		if d.TZOffsetMinutes == 0 {
			s += "Z"
		} else {
			sign := "+"
			off := d.TZOffsetMinutes
			if off < 0 {
				sign = "-"
				off = -off
			}
			s += fmt.Sprintf("%s%02d:%02d", sign, off/60, off%60)
		}
	}
	return s
}
func (d DateTime) Equal(other Value) bool {
	o, ok := other.(DateTime)
	return ok && o == d
}

// Time is a FHIRPath Time value (no date component).
type Time struct {
	Hour, Minute, Second, Millisecond int
	Precision                         int
}

func (t Time) Kind() typesystem.PrimitiveKind { return typesystem.Time }
func (t Time) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Millisecond != 0 {
		s += fmt.Sprintf(".%03d", t.Millisecond)
	}
	return s
}
func (t Time) Equal(other Value) bool {
	o, ok := other.(Time)
	return ok && o == t
}

// Quantity is a FHIRPath Quantity value: a decimal value plus a unit
// string (UCUM code or calendar-duration word).
type Quantity struct {
	Value float64
	Unit  string
}

func (q Quantity) Kind() typesystem.PrimitiveKind { return typesystem.Quantity }
func (q Quantity) String() string                 { return fmt.Sprintf("%g '%s'", q.Value, q.Unit) }
func (q Quantity) Equal(other Value) bool {
	o, ok := other.(Quantity)
	if !ok {
		return false
	}
	return o.Value == q.Value && sameUnit(o.Unit, q.Unit)
}

// calendarSynonyms maps every calendar-duration word to its UCUM code, so
// `4 years` and `4 'a'` compare equal per the quantity supplement in
// SPEC_FULL.md §C.
var calendarSynonyms = map[string]string{
	"year": "a", "years": "a",
	"month": "mo", "months": "mo",
	"week": "wk", "weeks": "wk",
	"day": "d", "days": "d",
	"hour": "h", "hours": "h",
	"minute": "min", "minutes": "min",
	"second": "s", "seconds": "s",
	"millisecond": "ms", "milliseconds": "ms",
}

func normalizeUnit(u string) string {
	if canon, ok := calendarSynonyms[u]; ok {
		return canon
	}
	return u
}

func sameUnit(a, b string) bool {
	return normalizeUnit(a) == normalizeUnit(b)
}

// Complex is a composite (object) value — the runtime representation of a
// FHIR resource or backbone element: a name -> Collection map plus an
// optional resourceType tag used by Identifier's type-filter rule.
type Complex struct {
	ResourceType string // "" if this is not a resource-rooted object
	Fields       map[string]Collection
	// Model is the TypeInfo the ModelProvider resolved for this object, if
	// any; used by the interpreter's `type()` function and by navigation
	// when a ModelProvider is present.
	Model *typesystem.TypeInfo
}

func (c *Complex) Kind() typesystem.PrimitiveKind { return typesystem.Any }
func (c *Complex) String() string {
	if c.ResourceType != "" {
		return fmt.Sprintf("[%s]", c.ResourceType)
	}
	return "[object]"
}
func (c *Complex) Equal(other Value) bool {
	o, ok := other.(*Complex)
	if !ok || len(o.Fields) != len(c.Fields) {
		return false
	}
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ov, ok := o.Fields[k]
		if !ok || len(ov) != len(c.Fields[k]) {
			return false
		}
		for i := range ov {
			if !ov[i].Equal(c.Fields[k][i]) {
				return false
			}
		}
	}
	return true
}

// Get returns the named field's Collection, or (nil, false) if absent.
func (c *Complex) Get(name string) (Collection, bool) {
	v, ok := c.Fields[name]
	return v, ok
}
