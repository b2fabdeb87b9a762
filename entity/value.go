package entity

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/casualjim/scriptbridge/pkg/stdx"
	"github.com/go-openapi/strfmt"
)

// Kind identifies which variant a Value holds.
type Kind uint8

// Value variants. Every kind but KindRecord and KindList is primitive.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDouble
	KindBool
	KindDateTime
	KindEnum
	KindRecord
	KindList
)

var kindNames = [...]string{
	KindNull:     "null",
	KindString:   "string",
	KindInt:      "int",
	KindDouble:   "double",
	KindBool:     "bool",
	KindDateTime: "datetime",
	KindEnum:     "enum",
	KindRecord:   "record",
	KindList:     "list",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsPrimitive reports whether the kind is a scalar variant.
func (k Kind) IsPrimitive() bool {
	return k != KindRecord && k != KindList
}

// Enum is an enumeration label, e.g. Color.Red.
type Enum struct {
	Type string
	Name string
}

func (e Enum) String() string {
	if e.Type == "" {
		return e.Name
	}
	return e.Type + "." + e.Name
}

// Value is an immutable structured value. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	dbl  float64
	b    bool
	dt   strfmt.DateTime
	enum Enum
	rec  Entity
	list []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string primitive.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer primitive.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Double returns a floating point primitive.
func Double(f float64) Value { return Value{kind: KindDouble, dbl: f} }

// Bool returns a boolean primitive.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// DateTime returns a date-time primitive. The time is normalized to UTC.
func DateTime(t time.Time) Value {
	return Value{kind: KindDateTime, dt: strfmt.DateTime(t.UTC())}
}

// EnumValue returns an enumeration label primitive.
func EnumValue(typ, name string) Value {
	return Value{kind: KindEnum, enum: Enum{Type: typ, Name: name}}
}

// Record wraps an entity as a nested record value.
func Record(e Entity) Value { return Value{kind: KindRecord, rec: e} }

// List returns a list value holding a copy of values.
func List(values ...Value) Value {
	return Value{kind: KindList, list: slices.Clone(values)}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v and whether v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer held by v and whether v is an int.
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInt }

// AsDouble returns the float held by v and whether v is a double.
func (v Value) AsDouble() (float64, bool) { return v.dbl, v.kind == KindDouble }

// AsBool returns the boolean held by v and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsDateTime returns the UTC time held by v and whether v is a date-time.
func (v Value) AsDateTime() (time.Time, bool) { return time.Time(v.dt), v.kind == KindDateTime }

// AsEnum returns the label held by v and whether v is an enum.
func (v Value) AsEnum() (Enum, bool) { return v.enum, v.kind == KindEnum }

// AsRecord returns the nested record held by v and whether v is a record.
func (v Value) AsRecord() (Entity, bool) { return v.rec, v.kind == KindRecord }

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Len returns the number of list elements or record fields, 0 for primitives.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindRecord:
		return v.rec.Len()
	default:
		return 0
	}
}

// Equal reports whether v and other hold the same variant and the same content.
// Records compare field order as well as names and values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindDouble:
		return v.dbl == other.dbl || (math.IsNaN(v.dbl) && math.IsNaN(other.dbl))
	case KindBool:
		return v.b == other.b
	case KindDateTime:
		return time.Time(v.dt).Equal(time.Time(other.dt))
	case KindEnum:
		return v.enum == other.enum
	case KindRecord:
		return v.rec.Equal(other.rec)
	case KindList:
		return slices.EqualFunc(v.list, other.list, Value.Equal)
	}
	return false
}

// String renders v in the sequence-language notation used for logging:
// strings are quoted, records are ('name': value ...), lists are [a, b].
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

// Text returns the unquoted textual form of a primitive, and String() for
// records and lists.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNull:
		return ""
	default:
		return v.String()
	}
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindString:
		sb.WriteString(strconv.Quote(v.str))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.num, 10))
	case KindDouble:
		sb.WriteString(strconv.FormatFloat(v.dbl, 'f', -1, 64))
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindDateTime:
		sb.WriteString(v.dt.String())
	case KindEnum:
		sb.WriteString(v.enum.String())
	case KindRecord:
		v.rec.writeTo(sb)
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.writeTo(sb)
		}
		sb.WriteByte(']')
	}
}

// ValueOf converts a Go value into a Value. Supported inputs are nil, Value,
// Entity, strings, all integer and float kinds, bool, time.Time,
// strfmt.DateTime, Enum and slices of any of those.
func ValueOf(in any) (Value, error) {
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case Entity:
		return Record(x), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Double(float64(x)), nil
		}
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Double(float64(x)), nil
		}
		return Int(int64(x)), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	case time.Time:
		return DateTime(x), nil
	case strfmt.DateTime:
		return DateTime(time.Time(x)), nil
	case Enum:
		return EnumValue(x.Type, x.Name), nil
	case []Value:
		return List(x...), nil
	case []string:
		return listOf(x)
	case []int:
		return listOf(x)
	case []int64:
		return listOf(x)
	case []float64:
		return listOf(x)
	case []any:
		return listOf(x)
	}
	return Value{}, fmt.Errorf("entity: unsupported value type %T", in)
}

// MustValueOf is ValueOf that panics on unsupported input.
func MustValueOf(in any) Value {
	return stdx.Must1(ValueOf(in))
}

func listOf[T any](items []T) (Value, error) {
	values := make([]Value, 0, len(items))
	for i, item := range items {
		v, err := ValueOf(item)
		if err != nil {
			return Value{}, fmt.Errorf("list element %d: %w", i, err)
		}
		values = append(values, v)
	}
	return Value{kind: KindList, list: values}, nil
}
