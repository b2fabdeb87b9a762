package native

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/dop251/goja"
)

const (
	// maxDepth bounds snapshot recursion; deeper values are almost always cyclic.
	maxDepth = 64
	// MaxNodes bounds the number of values one snapshot may hold. Shared
	// subobjects are copied and count once per reference.
	MaxNodes = 1 << 18
)

// ErrTooLarge is returned when a value holds more than MaxNodes values.
var ErrTooLarge = errors.New("value too large to capture")

var mapExportType = reflect.TypeOf([][2]any{})

// Try runs fn as a native call inside vm. Script exceptions and interrupts
// raised by script code that fn triggers, such as getters, proxy traps or
// toString methods, are returned as errors instead of unwinding the caller.
// A script exception comes back as ErrScriptException carrying the thrown
// value's text, so the error can be formatted outside the runtime.
func Try(vm *goja.Runtime, fn func()) error {
	err := try(vm, fn)
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err
	}
	text := "thrown value cannot be formatted"
	_ = try(vm, func() { text = exc.Error() })
	return fmt.Errorf("%w: %s", ErrScriptException, text)
}

func try(vm *goja.Runtime, fn func()) error {
	call, _ := goja.AssertFunction(vm.ToValue(func(goja.FunctionCall) goja.Value {
		fn()
		return goja.Undefined()
	}))
	_, err := call(goja.Undefined())
	return err
}

// Capture snapshots a goja value into an Object. It must run on the goroutine
// that owns vm. The returned Object no longer references the runtime. Capture
// stops with ctx.Err() once ctx is done and with ErrTooLarge when the value
// holds more than MaxNodes values.
func Capture(ctx context.Context, vm *goja.Runtime, v goja.Value) (obj *Object, err error) {
	c := &capturer{ctx: ctx, vm: vm}
	if terr := Try(vm, func() { obj, err = c.capture(v, 0) }); terr != nil {
		return nil, terr
	}
	return obj, err
}

type capturer struct {
	ctx   context.Context
	vm    *goja.Runtime
	nodes int
}

func (c *capturer) visit(n int) error {
	if n > MaxNodes-c.nodes {
		return fmt.Errorf("%w: more than %d values", ErrTooLarge, MaxNodes)
	}
	c.nodes += n
	return c.ctx.Err()
}

func (c *capturer) capture(v goja.Value, depth int) (*Object, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("value nested deeper than %d levels", maxDepth)
	}
	if err := c.visit(1); err != nil {
		return nil, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return Null(), nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return scalarOf(v.Export()), nil
	}
	if obj.ExportType() == mapExportType {
		return c.captureMap(obj, depth)
	}

	switch obj.ClassName() {
	case "Array":
		n := obj.Get("length").ToInteger()
		if n > int64(MaxNodes-c.nodes) {
			return nil, fmt.Errorf("%w: array of length %d", ErrTooLarge, n)
		}
		items := make([]*Object, 0, n)
		for i := int64(0); i < n; i++ {
			item, err := c.capture(obj.Get(strconv.FormatInt(i, 10)), depth+1)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, item)
		}
		return &Object{shape: ShapeArray, items: items}, nil

	case "Date":
		if t, ok := obj.Export().(time.Time); ok {
			return Scalar(t), nil
		}
		return Null(), nil

	case "String", "Number", "Boolean":
		return scalarOf(obj.Export()), nil

	case "Function", "Error":
		return Scalar(obj.String()), nil
	}

	keys := obj.Keys()
	props := make([]Property, 0, len(keys))
	for _, key := range keys {
		pv, err := c.capture(obj.Get(key), depth+1)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key, err)
		}
		props = append(props, Property{Name: key, Value: pv})
	}
	return &Object{shape: ShapePropertyBag, props: props}, nil
}

func (c *capturer) captureMap(obj *goja.Object, depth int) (*Object, error) {
	forEach, ok := goja.AssertFunction(obj.Get("forEach"))
	if !ok {
		return nil, fmt.Errorf("map object has no forEach method")
	}

	var (
		entries []Entry
		cbErr   error
	)
	cb := c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if cbErr != nil {
			return goja.Undefined()
		}
		val, err := c.capture(call.Argument(0), depth+1)
		if err != nil {
			cbErr = err
			return goja.Undefined()
		}
		var key *Object
		if k := call.Argument(1); !goja.IsNull(k) && !goja.IsUndefined(k) {
			if key, err = c.capture(k, depth+1); err != nil {
				cbErr = err
				return goja.Undefined()
			}
		}
		entries = append(entries, Entry{Key: key, Value: val})
		return goja.Undefined()
	})

	if _, err := forEach(obj, cb); err != nil {
		// rethrow so the enclosing Try reports it like any other script exception
		panic(err)
	}
	if cbErr != nil {
		return nil, cbErr
	}
	return &Object{shape: ShapeMap, entries: entries}, nil
}

func scalarOf(v any) *Object {
	switch x := v.(type) {
	case nil, string, int64, float64, bool, time.Time:
		return Scalar(x)
	case int:
		return Scalar(int64(x))
	default:
		return Scalar(fmt.Sprint(x))
	}
}

// Materialize builds a goja value from an Object inside vm. Property bags
// become plain objects, maps become Map instances, date-times become Date
// objects and labels become their name.
func Materialize(vm *goja.Runtime, o *Object) (goja.Value, error) {
	if o == nil {
		return goja.Null(), nil
	}

	switch o.shape {
	case ShapeScalar:
		switch x := o.scalar.(type) {
		case nil:
			return goja.Null(), nil
		case time.Time:
			return vm.New(vm.Get("Date"), vm.ToValue(x.UnixMilli()))
		case Label:
			return vm.ToValue(x.Name), nil
		default:
			return vm.ToValue(x), nil
		}

	case ShapePropertyBag:
		obj := vm.NewObject()
		for _, p := range o.props {
			pv, err := Materialize(vm, p.Value)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", p.Name, err)
			}
			if err := obj.Set(p.Name, pv); err != nil {
				return nil, err
			}
		}
		return obj, nil

	case ShapeMap:
		m, err := vm.New(vm.Get("Map"))
		if err != nil {
			return nil, err
		}
		set, ok := goja.AssertFunction(m.Get("set"))
		if !ok {
			return nil, fmt.Errorf("map object has no set method")
		}
		for _, e := range o.entries {
			k, err := Materialize(vm, e.Key)
			if err != nil {
				return nil, err
			}
			v, err := Materialize(vm, e.Value)
			if err != nil {
				return nil, err
			}
			if _, err := set(m, k, v); err != nil {
				return nil, err
			}
		}
		return m, nil

	case ShapeArray:
		items := make([]any, 0, len(o.items))
		for i, item := range o.items {
			iv, err := Materialize(vm, item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			items = append(items, iv)
		}
		return vm.NewArray(items...), nil
	}
	return nil, fmt.Errorf("unknown native shape %s", o.shape)
}
