// Package basic is a reference, in-memory typesystem.ModelProvider (spec
// §6.2's consumed contract) covering a small hand-written subset of FHIR
// R4 resource shapes — Patient, HumanName, Identifier, Observation,
// CodeableConcept, Coding, Quantity, Reference — so the analyzer and
// conformance tests are exercisable without a host supplying its own
// StructureDefinition-backed provider (SPEC_FULL.md §C). It lives outside
// internal/ because CORE treats ModelProvider purely as an external
// collaborator: this is one possible implementation, not part of the
// engine itself.
package basic

import "github.com/funvibe/fhirpath/internal/typesystem"

const namespace = "FHIR"

// typeDef describes one model type's direct elements and its base type
// (for IsAssignable's inheritance walk), mirroring how a real
// StructureDefinition expresses "Patient : DomainResource : Resource".
type typeDef struct {
	base     string
	elements map[string]typesystem.TypeInfo
}

// Provider implements typesystem.ModelProvider over a fixed schema table.
type Provider struct {
	schema map[string]typeDef
}

// New builds the reference provider with its built-in FHIR R4 subset
// already registered.
func New() *Provider {
	p := &Provider{schema: map[string]typeDef{}}
	p.registerCore()
	return p
}

func (p *Provider) register(name, base string, elements map[string]typesystem.TypeInfo) {
	p.schema[name] = typeDef{base: base, elements: elements}
}

func modelSingleton(name string) typesystem.TypeInfo { return typesystem.ModelType(namespace, name).AsSingleton() }
func modelCollection(name string) typesystem.TypeInfo { return typesystem.ModelType(namespace, name).AsCollection() }
func prim(k typesystem.PrimitiveKind) typesystem.TypeInfo { return typesystem.Singleton(k) }
func primMany(k typesystem.PrimitiveKind) typesystem.TypeInfo { return typesystem.Collection(k) }

func (p *Provider) registerCore() {
	p.register("Resource", "", map[string]typesystem.TypeInfo{
		"id":       prim(typesystem.String),
		"meta":     modelSingleton("Meta"),
	})
	p.register("DomainResource", "Resource", map[string]typesystem.TypeInfo{
		"text": prim(typesystem.String),
	})
	p.register("Element", "", map[string]typesystem.TypeInfo{
		"id": prim(typesystem.String),
	})

	p.register("Identifier", "Element", map[string]typesystem.TypeInfo{
		"use":    prim(typesystem.String),
		"system": prim(typesystem.String),
		"value":  prim(typesystem.String),
	})

	p.register("HumanName", "Element", map[string]typesystem.TypeInfo{
		"use":    prim(typesystem.String),
		"text":   prim(typesystem.String),
		"family": prim(typesystem.String),
		"given":  primMany(typesystem.String),
	})

	p.register("Coding", "Element", map[string]typesystem.TypeInfo{
		"system":  prim(typesystem.String),
		"code":    prim(typesystem.String),
		"display": prim(typesystem.String),
	})

	p.register("CodeableConcept", "Element", map[string]typesystem.TypeInfo{
		"coding": modelCollection("Coding"),
		"text":   prim(typesystem.String),
	})

	p.register("Quantity", "Element", map[string]typesystem.TypeInfo{
		"value":  prim(typesystem.Decimal),
		"unit":   prim(typesystem.String),
		"system": prim(typesystem.String),
		"code":   prim(typesystem.String),
	})

	p.register("Reference", "Element", map[string]typesystem.TypeInfo{
		"reference":  prim(typesystem.String),
		"display":    prim(typesystem.String),
		"identifier": modelSingleton("Identifier"),
	})

	p.register("Patient", "DomainResource", map[string]typesystem.TypeInfo{
		"identifier": modelCollection("Identifier"),
		"name":       modelCollection("HumanName"),
		"active":     prim(typesystem.Boolean),
		"birthDate":  prim(typesystem.Date),
		"gender":     prim(typesystem.String),
	})

	p.register("Observation", "DomainResource", map[string]typesystem.TypeInfo{
		"identifier":      modelCollection("Identifier"),
		"status":          prim(typesystem.String),
		"code":            modelSingleton("CodeableConcept"),
		"subject":         modelSingleton("Reference"),
		"valueQuantity":   modelSingleton("Quantity"),
		"valueString":     prim(typesystem.String),
		"valueBoolean":    prim(typesystem.Boolean),
		"effectiveDateTime": prim(typesystem.DateTime),
	})
}

// GetType resolves a bare or "FHIR."-qualified type name.
func (p *Provider) GetType(name string) (typesystem.TypeInfo, bool) {
	name = stripNamespace(name)
	if _, ok := p.schema[name]; !ok {
		return typesystem.TypeInfo{}, false
	}
	return modelSingleton(name), true
}

// GetElementType resolves parent.elementName, walking parent's base chain
// when the element isn't declared directly on parent (inheritance).
func (p *Provider) GetElementType(parent typesystem.TypeInfo, elementName string) (typesystem.TypeInfo, bool) {
	for name := parent.Name; name != ""; {
		def, ok := p.schema[name]
		if !ok {
			return typesystem.TypeInfo{}, false
		}
		if t, ok := def.elements[elementName]; ok {
			return t, true
		}
		name = def.base
	}
	return typesystem.TypeInfo{}, false
}

// GetChildrenType returns a union TypeInfo of every direct (non-inherited)
// child type, used by the children()/descendants() functions.
func (p *Provider) GetChildrenType(parent typesystem.TypeInfo) (typesystem.TypeInfo, bool) {
	def, ok := p.schema[parent.Name]
	if !ok || len(def.elements) == 0 {
		return typesystem.TypeInfo{}, false
	}
	choices := make([]typesystem.TypeInfo, 0, len(def.elements))
	for _, t := range def.elements {
		choices = append(choices, t)
	}
	return typesystem.TypeInfo{Type: typesystem.Any, Union: true, Choices: choices}, true
}

// IsAssignable walks from's base chain looking for to's name; a type is
// always assignable to itself.
func (p *Provider) IsAssignable(from, to typesystem.TypeInfo) bool {
	if from.Name == to.Name {
		return true
	}
	for name := from.Name; name != ""; {
		def, ok := p.schema[name]
		if !ok {
			return false
		}
		if def.base == to.Name {
			return true
		}
		name = def.base
	}
	return false
}

// TypeName renders a TypeInfo's model name, falling back to its primitive
// kind for non-model types.
func (p *Provider) TypeName(t typesystem.TypeInfo) string {
	if t.IsModelType() {
		return t.Name
	}
	return string(t.Type)
}

func stripNamespace(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
