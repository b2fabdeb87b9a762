package scriptbridge

import (
	"iter"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	"github.com/casualjim/scriptbridge/internal/stream"
	"github.com/fogfish/opts"
)

// Option configures a script run.
type Option = opts.Option[Options]

// Options holds the configuration of a single script run.
type Options struct {
	name        string
	variables   entity.Entity
	input       iter.Seq[entity.Entity]
	logger      events.Logger
	queueSize   int
	inputBuffer int
}

func newOptions(options []Option) (Options, error) {
	o := Options{
		name:      "script",
		queueSize: stream.DefaultQueueSize,
	}
	if err := opts.Apply(&o, options); err != nil {
		return Options{}, err
	}
	if o.logger == nil {
		o.logger = events.Slog(nil)
	}
	return o, nil
}

var (
	// WithName names the script in error positions and logs.
	//
	// Example:
	//  RunScript(ctx, script, WithName("cleanup.js"))
	WithName = opts.ForName[Options, string]("name")

	// WithVariables binds every field of the record as a global variable of
	// the same name before the script starts.
	//
	// Example:
	//  RunScript(ctx, `output(prop1)`, WithVariables(entity.Create("prop1", 1)))
	WithVariables = opts.ForName[Options, entity.Entity]("variables")

	// WithInput feeds records to the script's $input while it runs.
	WithInput = opts.ForName[Options, iter.Seq[entity.Entity]]("input")

	// WithLogger routes the script's error, warning and information records.
	// The default logs to slog.Default().
	WithLogger = opts.ForName[Options, events.Logger]("logger")

	// WithQueueSize bounds the number of output items buffered ahead of the
	// consumer.
	WithQueueSize = opts.ForName[Options, int]("queueSize")

	// WithInputBuffer bounds the number of input records buffered ahead of the
	// script.
	WithInputBuffer = opts.ForName[Options, int]("inputBuffer")
)

// WithInputRecords feeds a fixed list of records to the script's $input.
func WithInputRecords(records ...entity.Entity) Option {
	return opts.Type[Options](func(o *Options) error {
		o.input = func(yield func(entity.Entity) bool) {
			for _, rec := range records {
				if !yield(rec) {
					return
				}
			}
		}
		return nil
	})
}
