package session

import (
	"context"
	"sync"

	"github.com/casualjim/scriptbridge/native"
)

// Input is the pipeline input channel of a session. One goroutine writes
// records and calls Complete; the script reads them through $input.
type Input struct {
	ch   chan *native.Object
	once sync.Once
}

// NewInput creates an input channel that buffers up to size records.
func NewInput(size int) *Input {
	if size < 0 {
		size = 0
	}
	return &Input{ch: make(chan *native.Object, size)}
}

// Write hands obj to the script, blocking while the buffer is full.
func (in *Input) Write(ctx context.Context, obj *native.Object) error {
	select {
	case in.ch <- obj:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Complete signals that no more records will be written. It is safe to call
// more than once.
func (in *Input) Complete() {
	in.once.Do(func() { close(in.ch) })
}

// Next returns the next record, or false once the input is complete and drained.
func (in *Input) Next(ctx context.Context) (*native.Object, bool, error) {
	if in == nil {
		return nil, false, nil
	}
	select {
	case obj, ok := <-in.ch:
		return obj, ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
