// Package session builds isolated script sessions: one goja runtime per
// script, with variables bound and host functions installed, ready to be
// invoked exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/native"
	"github.com/casualjim/scriptbridge/pkg/slogx"
	"github.com/casualjim/scriptbridge/pkg/uuidx"
	"github.com/dop251/goja"
	"github.com/go-openapi/strfmt"
)

// InputVariable is the global the script reads pipeline input from.
const InputVariable = "$input"

// Session is a single-use execution context bound to one script body and one
// set of variables. A Session is not safe for concurrent use; Invoke runs the
// script on the calling goroutine and the delivery collections notify their
// subscribers on that same goroutine.
type Session struct {
	ID   string
	Name string

	Output      *Collection[*native.Object]
	Error       *Collection[ErrorRecord]
	Warning     *Collection[WarningRecord]
	Information *Collection[InformationRecord]

	mu         sync.Mutex
	ctx        context.Context
	vm         *goja.Runtime
	program    *goja.Program
	compileErr error
	invoked    atomic.Bool
	disposed   atomic.Bool
}

// New creates a session for script with every field of variables bound as a
// global of the same name, in field order. The script is compiled but not run;
// a compile failure is reported as an error record when the session is
// invoked. New fails only when a variable cannot be bound.
func New(name, script string, variables entity.Entity) (*Session, error) {
	s := &Session{
		ID:          uuidx.NewString(),
		Name:        name,
		Output:      NewCollection[*native.Object](),
		Error:       NewCollection[ErrorRecord](),
		Warning:     NewCollection[WarningRecord](),
		Information: NewCollection[InformationRecord](),
		ctx:         context.Background(),
		vm:          goja.New(),
	}

	if err := s.installHost(); err != nil {
		return nil, fmt.Errorf("installing host functions: %w", err)
	}

	for varName, value := range variables.All() {
		gv, err := native.Materialize(s.vm, native.ToNative(value))
		if err != nil {
			return nil, fmt.Errorf("binding variable %q: %w", varName, err)
		}
		if err := s.vm.Set(varName, gv); err != nil {
			return nil, fmt.Errorf("binding variable %q: %w", varName, err)
		}
	}

	s.program, s.compileErr = goja.Compile(name, script, false)
	return s, nil
}

// Invoke runs the script to completion on the calling goroutine, reading
// pipeline input from in (nil means no input). Script errors are delivered to
// the Error collection and do not fail the call. Invoke returns ctx.Err()
// when the run was interrupted by ctx.
func (s *Session) Invoke(ctx context.Context, in *Input) error {
	if s.disposed.Load() || !s.invoked.CompareAndSwap(false, true) {
		return ErrSessionUsed
	}
	s.mu.Lock()
	vm, program := s.vm, s.program
	s.mu.Unlock()
	if vm == nil {
		return ErrSessionUsed
	}

	if s.compileErr != nil {
		s.writeError(runtimeError(vm, s.compileErr))
		return nil
	}
	s.ctx = ctx

	if err := vm.Set(InputVariable, s.inputObject(ctx, vm, in)); err != nil {
		return fmt.Errorf("binding %s: %w", InputVariable, err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	defer close(done)

	slog.DebugContext(ctx, "invoking script", slogx.Session(s.ID), slog.String("name", s.Name))
	result, err := vm.RunProgram(program)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return fmt.Errorf("script interrupted: %w", err)
		}
		s.writeError(runtimeError(vm, err))
		return nil
	}

	if result != nil && !goja.IsUndefined(result) && !goja.IsNull(result) {
		s.emit(vm, result)
	}
	return ctx.Err()
}

// Dispose completes every delivery collection and releases the runtime. It is
// safe to call more than once and from any goroutine once Invoke returned.
func (s *Session) Dispose() {
	if !s.disposed.CompareAndSwap(false, true) {
		return
	}
	s.Output.Complete()
	s.Error.Complete()
	s.Warning.Complete()
	s.Information.Complete()

	s.mu.Lock()
	s.vm, s.program = nil, nil
	s.mu.Unlock()
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	return s.disposed.Load()
}

func (s *Session) emit(vm *goja.Runtime, v goja.Value) {
	obj, err := native.Capture(s.ctx, vm, v)
	if s.ctx.Err() != nil {
		return
	}
	if err != nil {
		s.writeError(&ScriptRuntimeError{Message: "cannot capture output: " + err.Error(), Cause: err})
		return
	}
	s.Output.Add(obj)
}

func (s *Session) writeError(err *ScriptRuntimeError) {
	s.Error.Add(ErrorRecord{Exception: err, Timestamp: now()})
}

func now() strfmt.DateTime {
	return strfmt.DateTime(time.Now().UTC())
}
