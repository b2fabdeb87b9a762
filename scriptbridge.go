package scriptbridge

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/internal/session"
	"github.com/casualjim/scriptbridge/internal/stream"
	"github.com/casualjim/scriptbridge/native"
	"github.com/casualjim/scriptbridge/pkg/slogx"
)

// RunScript runs script to completion and returns every output item in
// emission order. Error, warning and information records go to the configured
// logger and never fail the run.
//
// When ctx is cancelled the script is stopped and the items produced so far
// are returned together with ctx.Err().
func RunScript(ctx context.Context, script string, options ...Option) ([]*native.Object, error) {
	o, err := newOptions(options)
	if err != nil {
		return nil, err
	}
	s, err := session.New(o.name, script, o.variables)
	if err != nil {
		return nil, err
	}
	return stream.Start(ctx, s, o.config()).Collect()
}

// RunScriptStreaming returns the script's output as a lazy, single-pass
// sequence. Nothing is allocated until iteration starts: the session is built
// and the script started on the first pull, and the script is stopped, with
// all of its resources released, when iteration ends: because the output was
// exhausted, the consumer stopped early or ctx was cancelled.
//
// Only option errors are returned. A session that cannot be built is
// reported to the configured logger and yields an empty sequence; a cancelled
// run simply ends the sequence early.
func RunScriptStreaming(ctx context.Context, script string, options ...Option) (iter.Seq[*native.Object], error) {
	o, err := newOptions(options)
	if err != nil {
		return nil, err
	}

	var started atomic.Bool
	return func(yield func(*native.Object) bool) {
		if !started.CompareAndSwap(false, true) {
			return
		}
		s, err := session.New(o.name, script, o.variables)
		if err != nil {
			o.logger.LogError(err.Error())
			slog.ErrorContext(ctx, "creating script session failed", slog.String("name", o.name), slogx.Error(err))
			return
		}
		run := stream.Start(ctx, s, o.config())
		for item := range run.All() {
			if !yield(item) {
				break
			}
		}
		if err := run.Close(); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "script run failed", slogx.Run(run.ID), slogx.Error(err))
		}
	}, nil
}

// GetRecordSequence runs script like RunScriptStreaming and converts every
// output item to an entity. An item that cannot be converted yields its error
// in place of the entity; the sequence goes on with the next item.
func GetRecordSequence(ctx context.Context, script string, options ...Option) (iter.Seq2[entity.Entity, error], error) {
	seq, err := RunScriptStreaming(ctx, script, options...)
	if err != nil {
		return nil, err
	}
	return func(yield func(entity.Entity, error) bool) {
		for item := range seq {
			if !yield(native.FromNative(item)) {
				return
			}
		}
	}, nil
}

// RunScriptRecords runs script to completion and converts every output item
// to an entity. Items that fail to convert are left out and their errors are
// joined into the returned error, alongside any run error.
func RunScriptRecords(ctx context.Context, script string, options ...Option) ([]entity.Entity, error) {
	items, runErr := RunScript(ctx, script, options...)

	records := make([]entity.Entity, 0, len(items))
	var errs []error
	for i, item := range items {
		rec, err := native.FromNative(item)
		if err != nil {
			errs = append(errs, fmt.Errorf("output item %d: %w", i, err))
			continue
		}
		records = append(records, rec)
	}
	return records, errors.Join(append([]error{runErr}, errs...)...)
}

// ActiveRuns returns the number of script runs that have started and not yet
// released their resources.
func ActiveRuns() int {
	return stream.ActiveRuns()
}

func (o Options) config() stream.Config {
	return stream.Config{
		Logger:      o.logger,
		QueueSize:   o.queueSize,
		Input:       o.input,
		InputBuffer: o.inputBuffer,
	}
}
