package entity

import (
	"iter"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PrimitiveKey is the field name under which a single unnamed value is stored.
const PrimitiveKey = "value"

// Field is a single named value of an Entity.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for Field{Name: name, Value: value}.
func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// Entity is an immutable record: an ordered set of uniquely named fields.
// The zero Entity is a valid empty record.
type Entity struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// New creates an entity from fields in the given order. When a name repeats,
// the later value wins and the field keeps its first position.
func New(fields ...Field) Entity {
	om := orderedmap.New[string, Value]()
	for _, f := range fields {
		om.Set(f.Name, f.Value)
	}
	return Entity{fields: om}
}

// Create builds an entity from alternating name/value pairs, converting each
// value with ValueOf. It panics on odd argument counts, non-string names and
// unsupported values, and is meant for literals in code and tests.
func Create(pairs ...any) Entity {
	if len(pairs)%2 != 0 {
		panic("entity.Create: odd number of arguments")
	}
	fields := make([]Field, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic("entity.Create: field name at position " + strconv.Itoa(i) + " is not a string")
		}
		fields = append(fields, F(name, MustValueOf(pairs[i+1])))
	}
	return New(fields...)
}

// Single returns an entity that holds v under PrimitiveKey.
func Single(v Value) Entity {
	return New(F(PrimitiveKey, v))
}

// Len returns the number of fields.
func (e Entity) Len() int {
	if e.fields == nil {
		return 0
	}
	return e.fields.Len()
}

// Get looks a field up by name.
func (e Entity) Get(name string) (Value, bool) {
	if e.fields == nil {
		return Value{}, false
	}
	return e.fields.Get(name)
}

// Primitive returns the lone value when the entity is a single unnamed value.
func (e Entity) Primitive() (Value, bool) {
	if e.Len() != 1 {
		return Value{}, false
	}
	return e.Get(PrimitiveKey)
}

// Names returns the field names in order.
func (e Entity) Names() []string {
	names := make([]string, 0, e.Len())
	for name := range e.All() {
		names = append(names, name)
	}
	return names
}

// All iterates the fields in order.
func (e Entity) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if e.fields == nil {
			return
		}
		for pair := e.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Fields returns a copy of the fields in order.
func (e Entity) Fields() []Field {
	fields := make([]Field, 0, e.Len())
	for name, value := range e.All() {
		fields = append(fields, F(name, value))
	}
	return fields
}

// With returns a copy of e with the named field set to value.
func (e Entity) With(name string, value Value) Entity {
	return New(append(e.Fields(), F(name, value))...)
}

// Equal reports whether both entities hold the same fields in the same order.
func (e Entity) Equal(other Entity) bool {
	if e.Len() != other.Len() {
		return false
	}
	if e.Len() == 0 {
		return true
	}
	a, b := e.fields.Oldest(), other.fields.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return a == nil && b == nil
}

// String renders the entity as ('name': value ...).
func (e Entity) String() string {
	var sb strings.Builder
	e.writeTo(&sb)
	return sb.String()
}

func (e Entity) writeTo(sb *strings.Builder) {
	sb.WriteByte('(')
	first := true
	for name, value := range e.All() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteByte('\'')
		sb.WriteString(name)
		sb.WriteString("': ")
		value.writeTo(sb)
	}
	sb.WriteByte(')')
}
