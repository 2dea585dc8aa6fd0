package fhirpath

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/funvibe/fhirpath/internal/runtime"
)

// FromJSON decodes a single FHIR resource/data item (spec §6.3: "plain
// hierarchical values conforming to FHIR JSON conventions") into a
// one-element runtime.Collection suitable as Evaluate's input. CORE itself
// excludes JSON parsing from its contract (spec §1's excluded
// collaborators); this is the ambient convenience a host actually needs to
// get from bytes on disk to an evaluable Collection, since FHIR resources
// are always shipped as JSON in practice.
func FromJSON(data []byte) (runtime.Collection, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("fhirpath: decoding JSON input: %w", err)
	}
	return runtime.Single(ToValue(raw)), nil
}

// ToValue converts one decoded JSON value (string, json.Number, bool, nil,
// []interface{}, or map[string]interface{} — the shapes encoding/json
// produces — plus the int and float64 numbers a YAML decoder produces) into
// a runtime.Value. Arrays are not representable as a single Value; use
// ToCollection for a JSON value that might be an array.
func ToValue(raw interface{}) runtime.Value {
	switch v := raw.(type) {
	case nil:
		return nil
	case bool:
		return runtime.Boolean{Value: v}
	case string:
		return runtime.String{Value: v}
	case json.Number:
		return numberValue(v)
	case int:
		return runtime.Integer{Value: int64(v)}
	case float64:
		return runtime.Decimal{Value: v}
	case map[string]interface{}:
		return complexValue(v)
	case []interface{}:
		// A bare array has no single Value representation; callers that
		// might receive one should use ToCollection instead.
		return nil
	default:
		return nil
	}
}

// ToCollection converts one decoded JSON value into a Collection,
// flattening a top-level JSON array into one element per item (FHIR's
// repeating-element convention, spec §6.3).
func ToCollection(raw interface{}) runtime.Collection {
	if arr, ok := raw.([]interface{}); ok {
		out := make(runtime.Collection, 0, len(arr))
		for _, e := range arr {
			out = append(out, ToCollection(e)...)
		}
		return out
	}
	if v := ToValue(raw); v != nil {
		return runtime.Single(v)
	}
	return runtime.Empty
}

func numberValue(n json.Number) runtime.Value {
	if i, err := n.Int64(); err == nil {
		return runtime.Integer{Value: i}
	}
	f, _ := n.Float64()
	return runtime.Decimal{Value: f}
}

func complexValue(m map[string]interface{}) *runtime.Complex {
	c := &runtime.Complex{Fields: make(map[string]runtime.Collection, len(m))}
	if rt, ok := m["resourceType"].(string); ok {
		c.ResourceType = rt
	}
	for k, v := range m {
		c.Fields[k] = ToCollection(v)
	}
	return c
}

// CollectionToJSON renders a result Collection as plain Go values
// (string/float64/int64/bool/map[string]interface{}/[]interface{}) ready
// for encoding/json or structpb.NewStruct — the inverse of ToCollection,
// used by cmd/fhirpath's eval output and pkg/rpc's response encoding.
func CollectionToJSON(c runtime.Collection) []interface{} {
	out := make([]interface{}, len(c))
	for i, v := range c {
		out[i] = ValueToJSON(v)
	}
	return out
}

// ValueToJSON renders one runtime.Value as a plain Go value.
func ValueToJSON(v runtime.Value) interface{} {
	switch val := v.(type) {
	case runtime.Boolean:
		return val.Value
	case runtime.String:
		return val.Value
	case runtime.Integer:
		return val.Value
	case runtime.Decimal:
		return val.Value
	case runtime.Quantity:
		return map[string]interface{}{"value": val.Value, "unit": val.Unit}
	case *runtime.Complex:
		m := make(map[string]interface{}, len(val.Fields))
		if val.ResourceType != "" {
			m["resourceType"] = val.ResourceType
		}
		for k, fv := range val.Fields {
			m[k] = CollectionToJSON(fv)
		}
		return m
	default:
		if v == nil {
			return nil
		}
		return v.String()
	}
}
