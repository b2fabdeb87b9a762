package native

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, vm *goja.Runtime, src string) *Object {
	t.Helper()
	v, err := vm.RunString(src)
	require.NoError(t, err)
	obj, err := Capture(context.Background(), vm, v)
	require.NoError(t, err)
	return obj
}

func TestCapture(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		shape Shape
		want  string
	}{
		{name: "string", src: `"hello"`, shape: ShapeScalar, want: "hello"},
		{name: "int", src: `41 + 1`, shape: ShapeScalar, want: "42"},
		{name: "float", src: `2.5`, shape: ShapeScalar, want: "2.5"},
		{name: "bool", src: `true`, shape: ShapeScalar, want: "true"},
		{name: "null", src: `null`, shape: ShapeScalar, want: ""},
		{name: "undefined", src: `undefined`, shape: ShapeScalar, want: ""},
		{name: "object keeps key order", src: `({ prop1: 'one', prop2: 2 })`, shape: ShapePropertyBag, want: "@{prop1=one; prop2=2}"},
		{name: "array", src: `[1, 'a', [2]]`, shape: ShapeArray, want: "1 a 2"},
		{name: "map", src: `new Map([['k', 1], [2, 'v']])`, shape: ShapeMap, want: "@{k=1; 2=v}"},
		{name: "map subclass", src: `class M extends Map {}; new M([['k', 1]])`, shape: ShapeMap, want: "@{k=1}"},
		{name: "empty map", src: `new Map()`, shape: ShapeMap, want: "@{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := run(t, goja.New(), tt.src)
			assert.Equal(t, tt.shape, obj.Shape())
			assert.Equal(t, tt.want, obj.String())
		})
	}
}

func TestCaptureDate(t *testing.T) {
	obj := run(t, goja.New(), `new Date(Date.UTC(2021, 0, 2, 3, 4, 5))`)
	require.Equal(t, ShapeScalar, obj.Shape())
	ts, ok := obj.Value().(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestCaptureMapWithNullKey(t *testing.T) {
	obj := run(t, goja.New(), `new Map([[null, 'x'], ['ok', 1]])`)
	require.Equal(t, ShapeMap, obj.Shape())

	entries := obj.Entries()
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].Key)

	_, err := FromNative(obj)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestCaptureCycleFails(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`const a = {}; a.self = a; a`)
	require.NoError(t, err)

	_, err = Capture(context.Background(), vm, v)
	assert.Error(t, err)
}

func TestMaterializeRoundTrip(t *testing.T) {
	ts := time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC)
	in := entity.New(
		entity.F("prop1", entity.Int(1)),
		entity.F("prop2", entity.String("two")),
		entity.F("ratio", entity.Double(0.25)),
		entity.F("ok", entity.Bool(false)),
		entity.F("when", entity.DateTime(ts)),
		entity.F("tags", entity.MustValueOf([]string{"four", "forty"})),
		entity.F("child", entity.Record(entity.Create("n", 2))),
	)

	vm := goja.New()
	gv, err := Materialize(vm, ToNativeRecord(in))
	require.NoError(t, err)
	require.NoError(t, vm.Set("rec", gv))

	got, err := vm.RunString(`rec.prop2 + ':' + rec.tags.length + ':' + rec.child.n + ':' + rec.when.getUTCFullYear()`)
	require.NoError(t, err)
	assert.Equal(t, "two:2:2:2020", got.String())

	obj, err := Capture(context.Background(), vm, gv)
	require.NoError(t, err)
	out, err := FromNative(obj)
	require.NoError(t, err)
	assert.True(t, in.Equal(out), "want %s, got %s", in, out)
}

func TestMaterializeMapAndLabel(t *testing.T) {
	vm := goja.New()
	m := Map(Entry{Key: Scalar("k"), Value: Scalar(Label{Type: "Color", Name: "Red"})})
	gv, err := Materialize(vm, m)
	require.NoError(t, err)
	require.NoError(t, vm.Set("m", gv))

	got, err := vm.RunString(`m instanceof Map && m.get('k')`)
	require.NoError(t, err)
	assert.Equal(t, "Red", got.String())
}

func TestCaptureScriptCodeThatThrows(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "getter", src: `({ get x() { throw new Error('boom') } })`, want: "boom"},
		{name: "proxy trap", src: `new Proxy({}, { ownKeys() { throw new Error('trap') } })`, want: "trap"},
		{name: "toString", src: `const e = new Error('x'); e.toString = () => { throw 'bad string' }; e`, want: "bad string"},
		{name: "map value getter", src: `new Map([['k', { get v() { throw new Error('inner') } }]])`, want: "inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := goja.New()
			v, err := vm.RunString(tt.src)
			require.NoError(t, err)

			require.NotPanics(t, func() {
				_, err = Capture(context.Background(), vm, v)
			})
			require.ErrorIs(t, err, ErrScriptException)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestTryUnformattableThrow(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`({ get x() { throw { toString() { throw 1 } } } })`)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = Capture(context.Background(), vm, v)
	})
	require.ErrorIs(t, err, ErrScriptException)
	assert.ErrorContains(t, err, "cannot be formatted")
}

func TestCaptureStopsWhenCancelled(t *testing.T) {
	vm := goja.New()
	v, err := vm.RunString(`({ a: 1, b: [1, 2, 3] })`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Capture(ctx, vm, v)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCaptureNodeBudget(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "shared subobjects", src: `let n = {}; for (let i = 0; i < 30; i++) n = { a: n, b: n }; n`},
		{name: "sparse array", src: `const a = []; a.length = 1e9; a`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := goja.New()
			v, err := vm.RunString(tt.src)
			require.NoError(t, err)

			start := time.Now()
			_, err = Capture(context.Background(), vm, v)
			assert.ErrorIs(t, err, ErrTooLarge)
			assert.Less(t, time.Since(start), 5*time.Second)
		})
	}
}

func TestMaterializeTruncatesDateTimeToMilliseconds(t *testing.T) {
	ts := time.Date(2020, 5, 6, 7, 8, 9, 123456789, time.UTC)

	vm := goja.New()
	gv, err := Materialize(vm, Scalar(ts))
	require.NoError(t, err)

	obj, err := Capture(context.Background(), vm, gv)
	require.NoError(t, err)
	got, ok := obj.Value().(time.Time)
	require.True(t, ok)
	assert.True(t, got.Equal(ts.Truncate(time.Millisecond)), "got %s", got)
	assert.False(t, got.Equal(ts))
}
