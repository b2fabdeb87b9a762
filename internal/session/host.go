package session

import (
	"context"
	"strings"

	"github.com/casualjim/scriptbridge/native"
	"github.com/dop251/goja"
)

func (s *Session) installHost() error {
	vm := s.vm

	output := func(call goja.FunctionCall) goja.Value {
		for _, arg := range call.Arguments {
			s.emit(vm, arg)
		}
		return goja.Undefined()
	}
	writeError := func(call goja.FunctionCall) goja.Value {
		msg := joinArgs(call.Arguments)
		if len(call.Arguments) == 1 {
			msg = exceptionMessage(call.Argument(0))
		}
		s.writeError(&ScriptRuntimeError{Message: msg})
		return goja.Undefined()
	}
	writeWarning := func(call goja.FunctionCall) goja.Value {
		s.Warning.Add(WarningRecord{Message: joinArgs(call.Arguments), Timestamp: now()})
		return goja.Undefined()
	}
	writeInformation := func(call goja.FunctionCall) goja.Value {
		s.Information.Add(InformationRecord{Message: joinArgs(call.Arguments), Timestamp: now()})
		return goja.Undefined()
	}

	globals := map[string]func(goja.FunctionCall) goja.Value{
		"output":           output,
		"writeOutput":      output,
		"writeError":       writeError,
		"writeWarning":     writeWarning,
		"writeInformation": writeInformation,
	}
	for name, fn := range globals {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}

	console := vm.NewObject()
	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"log":   writeInformation,
		"info":  writeInformation,
		"debug": writeInformation,
		"warn":  writeWarning,
		"error": writeError,
	} {
		if err := console.Set(name, fn); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

// inputObject builds the $input global: an iterator over the pipeline input
// with forEach and toArray helpers.
func (s *Session) inputObject(ctx context.Context, vm *goja.Runtime, in *Input) *goja.Object {
	next := func() (goja.Value, bool) {
		obj, ok, err := in.Next(ctx)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		if !ok {
			return goja.Undefined(), false
		}
		v, err := native.Materialize(vm, obj)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return v, true
	}

	self := vm.NewObject()
	_ = self.Set("next", func(goja.FunctionCall) goja.Value {
		res := vm.NewObject()
		v, ok := next()
		_ = res.Set("value", v)
		_ = res.Set("done", !ok)
		return res
	})
	_ = self.Set("forEach", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("$input.forEach expects a function"))
		}
		for i := 0; ; i++ {
			v, ok := next()
			if !ok {
				return goja.Undefined()
			}
			if _, err := fn(goja.Undefined(), v, vm.ToValue(i)); err != nil {
				panic(err)
			}
		}
	})
	_ = self.Set("toArray", func(goja.FunctionCall) goja.Value {
		var items []any
		for {
			v, ok := next()
			if !ok {
				return vm.NewArray(items...)
			}
			items = append(items, v)
		}
	})
	_ = self.SetSymbol(goja.SymIterator, func(goja.FunctionCall) goja.Value {
		return self
	})
	return self
}

func joinArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}
