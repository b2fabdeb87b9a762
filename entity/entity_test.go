package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("keeps field order", func(t *testing.T) {
		e := New(F("b", Int(2)), F("a", Int(1)), F("c", Int(3)))
		assert.Equal(t, []string{"b", "a", "c"}, e.Names())
	})

	t.Run("duplicate names keep first position and last value", func(t *testing.T) {
		e := New(F("a", Int(1)), F("b", Int(2)), F("a", Int(3)))
		assert.Equal(t, []string{"a", "b"}, e.Names())
		v, ok := e.Get("a")
		require.True(t, ok)
		assert.True(t, v.Equal(Int(3)))
	})

	t.Run("zero entity is empty", func(t *testing.T) {
		var e Entity
		assert.Equal(t, 0, e.Len())
		assert.Empty(t, e.Names())
		_, ok := e.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, "()", e.String())
	})
}

func TestCreate(t *testing.T) {
	e := Create("prop1", 1, "prop2", "two", "list", []string{"four", "forty"})
	assert.Equal(t, `('prop1': 1 'prop2': "two" 'list': ["four", "forty"])`, e.String())

	assert.Panics(t, func() { Create("odd") })
	assert.Panics(t, func() { Create(1, 2) })
	assert.Panics(t, func() { Create("ch", make(chan int)) })
}

func TestEntityEqual(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Entity
		equal bool
	}{
		{
			name:  "same fields",
			a:     Create("a", 1, "b", "x"),
			b:     Create("a", 1, "b", "x"),
			equal: true,
		},
		{
			name:  "different order",
			a:     Create("a", 1, "b", "x"),
			b:     Create("b", "x", "a", 1),
			equal: false,
		},
		{
			name:  "different kind",
			a:     Create("a", 1),
			b:     Create("a", 1.0),
			equal: false,
		},
		{
			name:  "nested",
			a:     Create("n", Create("x", []int{1, 2})),
			b:     Create("n", Create("x", []int{1, 2})),
			equal: true,
		},
		{
			name:  "empty and zero",
			a:     New(),
			b:     Entity{},
			equal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestEntityPrimitive(t *testing.T) {
	v, ok := Single(String("hello!")).Primitive()
	require.True(t, ok)
	assert.Equal(t, `"hello!"`, v.String())

	_, ok = Create("other", 1).Primitive()
	assert.False(t, ok)
	_, ok = Create(PrimitiveKey, 1, "other", 2).Primitive()
	assert.False(t, ok)
}

func TestEntityWithDoesNotMutate(t *testing.T) {
	orig := Create("a", 1)
	next := orig.With("b", Int(2))

	assert.Equal(t, 1, orig.Len())
	assert.Equal(t, "('a': 1 'b': 2)", next.String())
}

func TestValueString(t *testing.T) {
	ts := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "null"},
		{"string", String("one"), `"one"`},
		{"int", Int(-3), "-3"},
		{"double", Double(2.5), "2.5"},
		{"bool", Bool(true), "true"},
		{"datetime", DateTime(ts), "2021-03-04T05:06:07.000Z"},
		{"enum", EnumValue("Color", "Red"), "Color.Red"},
		{"list", List(Int(1), String("a")), `[1, "a"]`},
		{"record", Record(Create("k", 1)), "('k': 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		kind    Kind
		wantErr bool
	}{
		{name: "nil", in: nil, kind: KindNull},
		{name: "string", in: "x", kind: KindString},
		{name: "int", in: 4, kind: KindInt},
		{name: "uint64 overflow", in: uint64(1 << 63), kind: KindDouble},
		{name: "float", in: float32(1.5), kind: KindDouble},
		{name: "bool", in: false, kind: KindBool},
		{name: "time", in: time.Now(), kind: KindDateTime},
		{name: "enum", in: Enum{Type: "T", Name: "N"}, kind: KindEnum},
		{name: "entity", in: Create("a", 1), kind: KindRecord},
		{name: "slice", in: []any{1, "two"}, kind: KindList},
		{name: "unsupported", in: struct{}{}, wantErr: true},
		{name: "unsupported element", in: []any{struct{}{}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ValueOf(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestValueAsListReturnsCopy(t *testing.T) {
	v := List(Int(1), Int(2))
	items, ok := v.AsList()
	require.True(t, ok)
	items[0] = Int(99)

	again, _ := v.AsList()
	assert.True(t, again[0].Equal(Int(1)))
}
