package native

import (
	"fmt"
	"time"

	"github.com/casualjim/scriptbridge/entity"
)

// ToNative converts a structured value into a native object. Records become
// property bags with one property per field, lists become arrays, and
// primitives become scalars of the matching Go type.
func ToNative(v entity.Value) *Object {
	switch v.Kind() {
	case entity.KindNull:
		return Null()
	case entity.KindString:
		s, _ := v.AsString()
		return Scalar(s)
	case entity.KindInt:
		i, _ := v.AsInt()
		return Scalar(i)
	case entity.KindDouble:
		f, _ := v.AsDouble()
		return Scalar(f)
	case entity.KindBool:
		b, _ := v.AsBool()
		return Scalar(b)
	case entity.KindDateTime:
		t, _ := v.AsDateTime()
		return Scalar(t)
	case entity.KindEnum:
		e, _ := v.AsEnum()
		return Scalar(Label{Type: e.Type, Name: e.Name})
	case entity.KindRecord:
		rec, _ := v.AsRecord()
		return ToNativeRecord(rec)
	case entity.KindList:
		items, _ := v.AsList()
		out := make([]*Object, 0, len(items))
		for _, item := range items {
			out = append(out, ToNative(item))
		}
		return &Object{shape: ShapeArray, items: out}
	}
	return Null()
}

// ToNativeRecord converts an entity into a property bag, field order preserved.
func ToNativeRecord(e entity.Entity) *Object {
	props := make([]Property, 0, e.Len())
	for name, value := range e.All() {
		props = append(props, Property{Name: name, Value: ToNative(value)})
	}
	return &Object{shape: ShapePropertyBag, props: props}
}

// FromNative converts a native object into an entity.
//
// A property bag yields one field per property and a map yields one field per
// entry; nested values are normalized recursively. Any other shape yields a
// single field under entity.PrimitiveKey.
//
// A nil object fails with *NullInputError and a map with a null or
// non-scalar key fails with *InvalidKeyError.
func FromNative(o *Object) (entity.Entity, error) {
	if o == nil {
		return entity.Entity{}, &NullInputError{Param: "native object"}
	}

	switch o.shape {
	case ShapePropertyBag, ShapeMap:
		v, err := valueFromNative(o)
		if err != nil {
			return entity.Entity{}, err
		}
		rec, _ := v.AsRecord()
		return rec, nil
	default:
		v, err := valueFromNative(o)
		if err != nil {
			return entity.Entity{}, err
		}
		return entity.Single(v), nil
	}
}

func valueFromNative(o *Object) (entity.Value, error) {
	if o == nil {
		return entity.Null(), nil
	}

	switch o.shape {
	case ShapeScalar:
		return scalarValue(o.scalar)

	case ShapePropertyBag:
		fields := make([]entity.Field, 0, len(o.props))
		for _, p := range o.props {
			v, err := valueFromNative(p.Value)
			if err != nil {
				return entity.Value{}, fmt.Errorf("property %q: %w", p.Name, err)
			}
			fields = append(fields, entity.F(p.Name, v))
		}
		return entity.Record(entity.New(fields...)), nil

	case ShapeMap:
		fields := make([]entity.Field, 0, len(o.entries))
		for _, e := range o.entries {
			name, err := keyName(e.Key)
			if err != nil {
				return entity.Value{}, err
			}
			v, err := valueFromNative(e.Value)
			if err != nil {
				return entity.Value{}, fmt.Errorf("entry %q: %w", name, err)
			}
			fields = append(fields, entity.F(name, v))
		}
		return entity.Record(entity.New(fields...)), nil

	case ShapeArray:
		items := make([]entity.Value, 0, len(o.items))
		for i, item := range o.items {
			v, err := valueFromNative(item)
			if err != nil {
				return entity.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, v)
		}
		return entity.List(items...), nil
	}
	return entity.Value{}, fmt.Errorf("unknown native shape %s", o.shape)
}

func keyName(key *Object) (string, error) {
	if key == nil || key.IsNull() {
		return "", &InvalidKeyError{Reason: "null key in map"}
	}
	if key.shape != ShapeScalar {
		return "", &InvalidKeyError{Reason: fmt.Sprintf("map key of shape %s cannot be a field name", key.shape)}
	}
	return formatScalar(key.scalar), nil
}

func scalarValue(v any) (entity.Value, error) {
	switch x := v.(type) {
	case nil:
		return entity.Null(), nil
	case string:
		return entity.String(x), nil
	case int64:
		return entity.Int(x), nil
	case float64:
		return entity.Double(x), nil
	case bool:
		return entity.Bool(x), nil
	case time.Time:
		return entity.DateTime(x), nil
	case Label:
		return entity.EnumValue(x.Type, x.Name), nil
	}
	return entity.ValueOf(v)
}
