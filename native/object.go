// Package native models values as the script engine sees them and converts
// between that model and the structured entity model.
//
// An Object is an immutable snapshot taken at the engine boundary. Its Shape is
// decided once, when the snapshot is built, and all later logic switches on the
// shape instead of inspecting runtime types again.
package native

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Shape is the runtime shape of a native object.
type Shape uint8

const (
	// ShapeScalar is a single primitive value, including null.
	ShapeScalar Shape = iota
	// ShapePropertyBag is an object exposing named properties, such as a
	// script object literal.
	ShapePropertyBag
	// ShapeMap is a key/value map whose keys are themselves native values.
	ShapeMap
	// ShapeArray is an ordered collection.
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapePropertyBag:
		return "property-bag"
	case ShapeMap:
		return "map"
	case ShapeArray:
		return "array"
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// Label is an enumeration label scalar.
type Label struct {
	Type string
	Name string
}

func (l Label) String() string { return l.Name }

// Property is a named property of a property bag.
type Property struct {
	Name  string
	Value *Object
}

// Entry is a key/value pair of a map. A nil Key is a null key.
type Entry struct {
	Key   *Object
	Value *Object
}

// Object is a snapshot of an engine value.
type Object struct {
	shape   Shape
	scalar  any
	props   []Property
	entries []Entry
	items   []*Object
}

// Scalar wraps a primitive. Supported values are nil, string, int64, float64,
// bool, time.Time and Label; other integer and float kinds are widened.
func Scalar(v any) *Object {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case int32:
		v = int64(x)
	case float32:
		v = float64(x)
	}
	return &Object{shape: ShapeScalar, scalar: v}
}

// Null returns the null scalar.
func Null() *Object { return &Object{shape: ShapeScalar} }

// Bag builds a property bag. Later duplicates replace earlier values in place.
func Bag(props ...Property) *Object {
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if i := slices.IndexFunc(out, func(q Property) bool { return q.Name == p.Name }); i >= 0 {
			out[i].Value = p.Value
			continue
		}
		out = append(out, p)
	}
	return &Object{shape: ShapePropertyBag, props: out}
}

// Map builds a key/value map.
func Map(entries ...Entry) *Object {
	return &Object{shape: ShapeMap, entries: slices.Clone(entries)}
}

// Array builds an ordered collection.
func Array(items ...*Object) *Object {
	return &Object{shape: ShapeArray, items: slices.Clone(items)}
}

// Shape returns the shape decided when the object was built.
func (o *Object) Shape() Shape { return o.shape }

// Value returns the scalar payload, nil for non-scalars.
func (o *Object) Value() any { return o.scalar }

// IsNull reports whether o is the null scalar.
func (o *Object) IsNull() bool { return o.shape == ShapeScalar && o.scalar == nil }

// Properties returns a copy of the bag's properties in order.
func (o *Object) Properties() []Property { return slices.Clone(o.props) }

// Entries returns a copy of the map's entries in order.
func (o *Object) Entries() []Entry { return slices.Clone(o.entries) }

// Items returns a copy of the array's elements.
func (o *Object) Items() []*Object { return slices.Clone(o.items) }

// Property looks up a property of a bag by name.
func (o *Object) Property(name string) (*Object, bool) {
	for _, p := range o.props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// String renders the object the way a console host would print it: scalars
// print bare, bags as @{a=1; b=two}, arrays space separated.
func (o *Object) String() string {
	if o == nil {
		return ""
	}
	switch o.shape {
	case ShapeScalar:
		return formatScalar(o.scalar)
	case ShapePropertyBag:
		parts := make([]string, 0, len(o.props))
		for _, p := range o.props {
			parts = append(parts, p.Name+"="+p.Value.String())
		}
		return "@{" + strings.Join(parts, "; ") + "}"
	case ShapeMap:
		parts := make([]string, 0, len(o.entries))
		for _, e := range o.entries {
			parts = append(parts, e.Key.String()+"="+e.Value.String())
		}
		return "@{" + strings.Join(parts, "; ") + "}"
	case ShapeArray:
		parts := make([]string, 0, len(o.items))
		for _, item := range o.items {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
