package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/signal"

	// load NATS_URL and SCRIPTBRIDGE_* settings from .env
	_ "github.com/joho/godotenv/autoload"

	"github.com/casualjim/scriptbridge"
	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	"github.com/casualjim/scriptbridge/internal/sink"
	"github.com/casualjim/scriptbridge/native"
	"github.com/casualjim/scriptbridge/pkg/hclvars"
	"github.com/casualjim/scriptbridge/pkg/logging"
	"github.com/casualjim/scriptbridge/pkg/natsx"
	"github.com/casualjim/scriptbridge/pkg/slogx"
	"github.com/casualjim/scriptbridge/pkg/uuidx"
	"github.com/tidwall/gjson"
)

var osExit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		slog.Error("script failed", slogx.Error(err))
		stop()
		osExit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		return err
	}
	if _, err := logging.Setup(stderr, cfg.logLevel, cfg.logFormat); err != nil {
		return err
	}

	script, err := readScript(cfg.scriptPath, stdin)
	if err != nil {
		return err
	}
	vars, err := loadVariables(cfg)
	if err != nil {
		return err
	}

	runID := uuidx.NewString()
	out, closeOut, err := openSink(cfg, runID, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	logger := sink.Logger(out)
	if cfg.console {
		logger = events.Tee(logger, events.Console(stderr))
	}

	options := []scriptbridge.Option{
		scriptbridge.WithName(cfg.scriptPath),
		scriptbridge.WithVariables(vars),
		scriptbridge.WithLogger(logger),
		scriptbridge.WithQueueSize(cfg.queueSize),
	}
	if cfg.inputPath != "" {
		input, closeInput, err := openInput(cfg.inputPath, stdin)
		if err != nil {
			return err
		}
		defer closeInput()
		options = append(options, scriptbridge.WithInput(input))
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	slog.DebugContext(ctx, "running script", slogx.Run(runID), slog.String("script", cfg.scriptPath), slog.Bool("stream", cfg.stream))
	if cfg.stream {
		err = streamRecords(ctx, out, script, options)
	} else {
		err = batchRecords(ctx, out, script, options)
	}
	return errors.Join(err, out.Close())
}

func streamRecords(ctx context.Context, out sink.Sink, script string, options []scriptbridge.Option) error {
	seq, err := scriptbridge.GetRecordSequence(ctx, script, options...)
	if err != nil {
		return err
	}
	var (
		n    int64
		errs []error
	)
	for rec, convErr := range seq {
		errs = append(errs, deliver(ctx, out, n, rec, convErr))
		n++
	}
	return errors.Join(append(errs, ctx.Err())...)
}

func batchRecords(ctx context.Context, out sink.Sink, script string, options []scriptbridge.Option) error {
	items, runErr := scriptbridge.RunScript(ctx, script, options...)
	errs := []error{runErr}
	for i, item := range items {
		rec, convErr := native.FromNative(item)
		errs = append(errs, deliver(ctx, out, int64(i), rec, convErr))
	}
	return errors.Join(errs...)
}

// deliver writes a record, or its conversion error, to out. Conversion errors
// are reported in the output stream and do not fail the command.
func deliver(ctx context.Context, out sink.Sink, seq int64, rec entity.Entity, convErr error) error {
	if convErr != nil {
		slog.WarnContext(ctx, "output item is not a record", slog.Int64("seq", seq), slogx.Error(convErr))
		return out.Error(ctx, seq, convErr)
	}
	return out.Record(ctx, seq, rec)
}

func readScript(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read script from stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	return string(b), nil
}

// loadVariables merges the HCL file and the JSON flag; JSON values win.
func loadVariables(cfg config) (entity.Entity, error) {
	var vars entity.Entity
	if cfg.varsHCL != "" {
		v, err := hclvars.Load(cfg.varsHCL)
		if err != nil {
			return entity.Entity{}, err
		}
		vars = v
	}
	if cfg.varsJSON != "" {
		if !gjson.Parse(cfg.varsJSON).IsObject() {
			return entity.Entity{}, errors.New("invalid -vars: expected a JSON object")
		}
		v, err := entity.ParseJSON([]byte(cfg.varsJSON))
		if err != nil {
			return entity.Entity{}, fmt.Errorf("invalid -vars: %w", err)
		}
		for name, value := range v.All() {
			vars = vars.With(name, value)
		}
	}
	return vars, nil
}

func openSink(cfg config, runID string, stdout io.Writer) (sink.Sink, func(), error) {
	if cfg.natsSubject == "" {
		w := bufio.NewWriter(stdout)
		return sink.JSONLines(w, runID), func() { _ = w.Flush() }, nil
	}

	nc, err := natsx.NewClient(cfg.natsURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return sink.NATS(nc, cfg.natsSubject, runID), nc.Close, nil
}

func openInput(path string, stdin io.Reader) (iter.Seq[entity.Entity], func(), error) {
	if path == "-" {
		return readLines(stdin), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return readLines(f), func() { _ = f.Close() }, nil
}

// readLines yields one record per non-empty JSON line of r. Lines that do not
// parse are logged and skipped.
func readLines(r io.Reader) iter.Seq[entity.Entity] {
	return func(yield func(entity.Entity) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for line := 1; sc.Scan(); line++ {
			b := sc.Bytes()
			if len(b) == 0 {
				continue
			}
			rec, err := entity.ParseJSON(b)
			if err != nil {
				slog.Warn("skipping input line", slog.Int("line", line), slogx.Error(err))
				continue
			}
			if !yield(rec) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			slog.Error("failed to read input", slogx.Error(err))
		}
	}
}
