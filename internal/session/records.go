package session

import (
	"errors"
	"fmt"

	"github.com/casualjim/scriptbridge/native"
	"github.com/dop251/goja"
	"github.com/go-openapi/strfmt"
)

// ErrSessionUsed is returned when a session is invoked more than once or
// after it was disposed.
var ErrSessionUsed = errors.New("session already invoked or disposed")

// ScriptRuntimeError is an error reported by the engine: a record written with
// writeError, an uncaught exception or a compile failure.
type ScriptRuntimeError struct {
	Message string
	Stack   string
	Cause   error
}

func (e *ScriptRuntimeError) Error() string {
	return e.Message
}

func (e *ScriptRuntimeError) Unwrap() error {
	return e.Cause
}

// ErrorRecord is an item of the error stream.
type ErrorRecord struct {
	Exception *ScriptRuntimeError
	Timestamp strfmt.DateTime
}

func (r ErrorRecord) String() string {
	if r.Exception == nil {
		return ""
	}
	return r.Exception.Message
}

// WarningRecord is an item of the warning stream.
type WarningRecord struct {
	Message   string
	Timestamp strfmt.DateTime
}

func (r WarningRecord) String() string { return r.Message }

// InformationRecord is an item of the information stream.
type InformationRecord struct {
	Message   string
	Timestamp strfmt.DateTime
}

func (r InformationRecord) String() string { return r.Message }

// runtimeError formats err inside vm: thrown values may run script code
// while being formatted.
func runtimeError(vm *goja.Runtime, err error) *ScriptRuntimeError {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		msg, stack := "thrown value cannot be formatted", ""
		_ = native.Try(vm, func() { msg = exceptionMessage(exc.Value()) })
		_ = native.Try(vm, func() { stack = exc.String() })
		return &ScriptRuntimeError{
			Message: msg,
			Stack:   stack,
			Cause:   fmt.Errorf("%w: %s", native.ErrScriptException, msg),
		}
	}
	var syn *goja.CompilerSyntaxError
	if errors.As(err, &syn) {
		return &ScriptRuntimeError{Message: syn.Error(), Cause: err}
	}
	return &ScriptRuntimeError{Message: err.Error(), Cause: err}
}

// exceptionMessage returns the message property of thrown Error objects and
// the string form of anything else that was thrown.
func exceptionMessage(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "script threw " + fmt.Sprint(v)
	}
	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Error" {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}
