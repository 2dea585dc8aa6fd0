// Package typesystem defines FHIRPath's static type model (§3.4 of the
// spec): the primitive kinds, the TypeInfo value used by both the analyzer
// and the public API, and the ModelProvider contract the analyzer consults
// for model (FHIR) type resolution. It is the FHIRPath-scoped replacement
// for the teacher's Hindley-Milner Kind/Type system — that system solves a
// much harder problem (full type inference with unification over a
// user-extensible type language) that FHIRPath does not need: FHIRPath's
// types are a closed set of primitives plus whatever an external
// ModelProvider names, walked forward only, never unified.
package typesystem

import "fmt"

// PrimitiveKind enumerates FHIRPath's primitive value types.
type PrimitiveKind string

const (
	Any      PrimitiveKind = "Any"
	Boolean  PrimitiveKind = "Boolean"
	String   PrimitiveKind = "String"
	Integer  PrimitiveKind = "Integer"
	Long     PrimitiveKind = "Long"
	Decimal  PrimitiveKind = "Decimal"
	Date     PrimitiveKind = "Date"
	DateTime PrimitiveKind = "DateTime"
	Time     PrimitiveKind = "Time"
	Quantity PrimitiveKind = "Quantity"
)

// TypeInfo describes the inferred type and cardinality of an expression, or
// of a model element. See spec §3.4 for the full invariant set.
type TypeInfo struct {
	Type      PrimitiveKind
	Singleton bool

	// Namespace/Name identify a non-primitive model type (e.g. namespace
	// "FHIR", name "Patient"). Empty for primitives.
	Namespace string
	Name      string

	// Union, when true, makes this a polymorphic choice type; Choices is
	// then non-empty and holds the alternative TypeInfos.
	Union   bool
	Choices []TypeInfo

	// Elements maps element name to its TypeInfo, for model types whose
	// shape the analyzer has already resolved (e.g. by walking a
	// ModelProvider). Nil when not resolved or not applicable.
	Elements map[string]TypeInfo

	// ModelContext is an opaque handle a ModelProvider recognizes; CORE
	// never interprets it.
	ModelContext interface{}
}

// AnyType is the unconstrained top type: a singleton of kind Any.
var AnyType = TypeInfo{Type: Any, Singleton: true}

// AnyCollection is the unconstrained top type as a (possibly multi-element)
// collection.
var AnyCollection = TypeInfo{Type: Any, Singleton: false}

// Singleton returns a singleton TypeInfo of the given primitive kind.
func Singleton(k PrimitiveKind) TypeInfo { return TypeInfo{Type: k, Singleton: true} }

// Collection returns a collection (non-singleton) TypeInfo of the given
// primitive kind.
func Collection(k PrimitiveKind) TypeInfo { return TypeInfo{Type: k, Singleton: false} }

// ModelType builds a non-primitive singleton TypeInfo naming a model type.
func ModelType(namespace, name string) TypeInfo {
	return TypeInfo{Type: Any, Singleton: true, Namespace: namespace, Name: name}
}

// IsModelType reports whether t names an external model type rather than a
// built-in primitive.
func (t TypeInfo) IsModelType() bool { return t.Name != "" }

// LeastUpperBound returns the narrowest TypeInfo both a and b are
// compatible with: identical type+name widen to a collection only if
// cardinality differs (spec §4.4's iif result-type rule); anything else
// widens to Any.
func LeastUpperBound(a, b TypeInfo) TypeInfo {
	if a.Type == b.Type && a.Namespace == b.Namespace && a.Name == b.Name {
		if a.Singleton == b.Singleton {
			return a
		}
		return a.AsCollection()
	}
	return AnyCollection
}

// AsCollection returns a copy of t with Singleton forced false.
func (t TypeInfo) AsCollection() TypeInfo {
	t.Singleton = false
	return t
}

// AsSingleton returns a copy of t with Singleton forced true.
func (t TypeInfo) AsSingleton() TypeInfo {
	t.Singleton = true
	return t
}

// String renders a TypeInfo for diagnostics and debugging.
func (t TypeInfo) String() string {
	base := string(t.Type)
	if t.IsModelType() {
		if t.Namespace != "" {
			base = t.Namespace + "." + t.Name
		} else {
			base = t.Name
		}
	}
	if t.Union {
		names := make([]string, len(t.Choices))
		for i, c := range t.Choices {
			names[i] = c.String()
		}
		base = fmt.Sprintf("(%s)", join(names, " | "))
	}
	if t.Singleton {
		return base
	}
	return "collection<" + base + ">"
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// IsCompatible implements the five-rule compatibility check of spec §4.4,
// used to decide whether a value/expression of type `from` may be used
// where `to` is expected. `is_assignable` from an attached ModelProvider is
// consulted last, when provided.
func IsCompatible(from, to TypeInfo, provider ModelProvider) bool {
	// 1. Exact match on type and singleton.
	if from.Type == to.Type && from.Namespace == to.Namespace && from.Name == to.Name && from.Singleton == to.Singleton {
		return true
	}
	// 2. Either side is Any.
	if from.Type == Any || to.Type == Any {
		return true
	}
	baseOK := sameBase(from, to) || (from.Type == Integer && to.Type == Decimal) // rule 4, folded in here
	if baseOK {
		// 3. Source singleton may be promoted to a target collection.
		if from.Singleton && !to.Singleton {
			return true
		}
		if from.Singleton == to.Singleton {
			return true
		}
		// collection -> singleton is never statically compatible; that is
		// a runtime (singleton-evaluation) concern, not a static one.
		return false
	}
	// 5. Model-provided subtype relation.
	if provider != nil && provider.IsAssignable(from, to) {
		return true
	}
	return false
}

func sameBase(a, b TypeInfo) bool {
	if a.Type != b.Type {
		return false
	}
	if a.IsModelType() || b.IsModelType() {
		return a.Namespace == b.Namespace && a.Name == b.Name
	}
	return true
}

// ModelProvider is the external FHIR type/schema resolver consumed only by
// the analyzer (spec §6.2). CORE specifies the contract only; no
// implementation is part of CORE. See pkg/modelprovider/basic for an
// optional reference implementation.
type ModelProvider interface {
	// GetType resolves a bare (possibly namespaced) type name to a
	// TypeInfo, or returns ok=false if unknown.
	GetType(name string) (TypeInfo, bool)

	// GetElementType resolves property navigation `parent.elementName`.
	GetElementType(parent TypeInfo, elementName string) (TypeInfo, bool)

	// GetChildrenType returns the union TypeInfo of all direct children of
	// parent, used by the `children()` function.
	GetChildrenType(parent TypeInfo) (TypeInfo, bool)

	// IsAssignable reports whether a value of type `from` may be used
	// where `to` is expected, per the provider's model inheritance chain.
	IsAssignable(from, to TypeInfo) bool

	// TypeName renders a TypeInfo the way the model names it (used in
	// diagnostics).
	TypeName(t TypeInfo) string
}
