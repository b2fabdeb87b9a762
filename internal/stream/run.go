package stream

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	"github.com/casualjim/scriptbridge/internal/registry"
	"github.com/casualjim/scriptbridge/internal/session"
	"github.com/casualjim/scriptbridge/native"
	"github.com/casualjim/scriptbridge/pkg/slogx"
	"github.com/casualjim/scriptbridge/pkg/uuidx"
	"golang.org/x/sync/errgroup"
)

// DefaultQueueSize bounds the output queue when Config.QueueSize is not set.
const DefaultQueueSize = 64

var active = registry.New[*Run]()

// ActiveRuns returns the number of runs started and not yet closed.
func ActiveRuns() int {
	return active.Len()
}

// ActiveRunIDs returns the ids of the runs started and not yet closed.
func ActiveRunIDs() []string {
	return active.IDs()
}

// Config configures a run.
type Config struct {
	// Logger receives error, warning and information records. Nil logs to slog.Default().
	Logger events.Logger
	// QueueSize bounds the output queue.
	QueueSize int
	// Input, when set, is fed to the script's pipeline input concurrently.
	Input iter.Seq[entity.Entity]
	// InputBuffer bounds the pipeline input channel.
	InputBuffer int
}

// Run is the execution handle of one script session. It owns the session, the
// output queue and the goroutines invoking the script and feeding its input.
// Every Run must be closed; All closes it when iteration stops.
type Run struct {
	ID string

	parent  context.Context
	cancel  context.CancelFunc
	group   *errgroup.Group
	session *session.Session
	queue   *Queue[*native.Object]
	logger  events.Logger

	consumed  atomic.Bool
	closeOnce sync.Once

	mu       sync.Mutex
	fatal    error
	closeErr error
}

// Start subscribes to the session's delivery collections and invokes the
// script on a new goroutine.
func Start(ctx context.Context, s *session.Session, cfg Config) *Run {
	if cfg.Logger == nil {
		cfg.Logger = events.Slog(nil)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(runCtx)
	r := &Run{
		ID:      uuidx.NewString(),
		parent:  ctx,
		cancel:  cancel,
		group:   group,
		session: s,
		queue:   NewQueue[*native.Object](cfg.QueueSize),
		logger:  cfg.Logger,
	}
	active.Add(r.ID, r)

	s.Output.OnDataAdded(func(sender any, index int) {
		r.check(ProcessData(sender, index, func(obj *native.Object) {
			if err := r.queue.Push(gctx, obj); err != nil {
				slog.DebugContext(gctx, "dropping output item", slogx.Run(r.ID), slogx.Error(err))
			}
		}))
	})
	s.Error.OnDataAdded(func(sender any, index int) {
		r.check(ProcessData(sender, index, func(rec session.ErrorRecord) {
			r.logger.LogError(rec.String())
		}))
	})
	s.Warning.OnDataAdded(func(sender any, index int) {
		r.check(ProcessData(sender, index, func(rec session.WarningRecord) {
			r.logger.LogWarning(rec.Message)
		}))
	})
	s.Information.OnDataAdded(func(sender any, index int) {
		r.check(ProcessData(sender, index, func(rec session.InformationRecord) {
			r.logger.LogInformation(rec.Message)
		}))
	})

	var in *session.Input
	feedCtx, stopFeed := context.WithCancel(gctx)
	if cfg.Input != nil {
		in = session.NewInput(cfg.InputBuffer)
		group.Go(func() error {
			defer in.Complete()
			return r.feed(feedCtx, in, cfg.Input)
		})
	}

	group.Go(func() error {
		defer r.queue.Complete()
		defer stopFeed()
		return s.Invoke(gctx, in)
	})

	slog.DebugContext(ctx, "started script run", slogx.Run(r.ID), slogx.Session(s.ID))
	return r
}

// feed copies records into the pipeline input until the source is exhausted
// or the script finished.
func (r *Run) feed(ctx context.Context, in *session.Input, source iter.Seq[entity.Entity]) error {
	for rec := range source {
		if err := in.Write(ctx, native.ToNativeRecord(rec)); err != nil {
			slog.DebugContext(ctx, "stopped feeding input", slogx.Run(r.ID), slogx.Error(err))
			return nil
		}
	}
	return nil
}

// check records a routing failure and stops the run.
func (r *Run) check(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	if r.fatal == nil {
		r.fatal = err
	}
	r.mu.Unlock()
	slog.Error("script stream routing failed", slogx.Run(r.ID), slogx.Error(err))
	r.cancel()
}

// All returns the output items in emission order. The sequence is single-pass:
// iterating it a second time yields nothing. The run is closed when iteration
// ends, whether the output was exhausted or the consumer stopped early.
func (r *Run) All() iter.Seq[*native.Object] {
	return func(yield func(*native.Object) bool) {
		if !r.consumed.CompareAndSwap(false, true) {
			return
		}
		defer r.Close()

		for {
			item, ok := r.queue.Pop()
			if !ok {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Collect waits for the script to finish and returns every output item. When
// the run fails or is cancelled the items delivered so far are returned along
// with the error.
func (r *Run) Collect() ([]*native.Object, error) {
	var items []*native.Object
	for item := range r.All() {
		items = append(items, item)
	}
	return items, r.Close()
}

// Close stops the script if it is still running, waits for every goroutine of
// the run and disposes the session. It is safe to call more than once.
func (r *Run) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		err := r.group.Wait()
		r.session.Dispose()
		active.Del(r.ID)

		// cancellation by Close itself is not a failure
		if errors.Is(err, context.Canceled) && r.parent.Err() == nil {
			err = nil
		}
		r.mu.Lock()
		r.closeErr = err
		r.mu.Unlock()
		slog.Debug("closed script run", slogx.Run(r.ID), slogx.Session(r.session.ID))
	})
	return r.Err()
}

// Err returns the error that ended the run, if any. It is final once Close
// returned.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fatal != nil {
		return r.fatal
	}
	return r.closeErr
}
