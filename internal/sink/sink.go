package sink

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/casualjim/scriptbridge/entity"
	"github.com/casualjim/scriptbridge/events"
	"github.com/casualjim/scriptbridge/pkg/slogx"
	"github.com/go-openapi/strfmt"
	"github.com/nats-io/nats.go"
)

// Sink receives the converted output of one run.
type Sink interface {
	Record(ctx context.Context, seq int64, rec entity.Entity) error
	Error(ctx context.Context, seq int64, err error) error
	Log(ctx context.Context, ev events.LogEvent) error
	Close() error
}

// JSONLines writes one envelope per line to w.
func JSONLines(w io.Writer, run string) Sink {
	return &lineSink{w: w, run: run}
}

type lineSink struct {
	mu  sync.Mutex
	w   io.Writer
	run string
}

func (s *lineSink) Record(_ context.Context, seq int64, rec entity.Entity) error {
	b, err := EncodeRecord(s.run, seq, rec)
	if err != nil {
		return err
	}
	return s.write(b)
}

func (s *lineSink) Error(_ context.Context, seq int64, cause error) error {
	b, err := EncodeError(s.run, seq, cause)
	if err != nil {
		return err
	}
	return s.write(b)
}

func (s *lineSink) Log(_ context.Context, ev events.LogEvent) error {
	b, err := EncodeLog(s.run, ev)
	if err != nil {
		return err
	}
	return s.write(b)
}

func (s *lineSink) write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

func (s *lineSink) Close() error {
	if c, ok := s.w.(interface{ Flush() error }); ok {
		return c.Flush()
	}
	return nil
}

// Publisher is the part of *nats.Conn a NATS sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
}

var _ Publisher = (*nats.Conn)(nil)

// NATS publishes every envelope to subject.
func NATS(client Publisher, subject, run string) Sink {
	return &natsSink{client: client, subject: subject, run: run}
}

type natsSink struct {
	client  Publisher
	subject string
	run     string
}

func (s *natsSink) Record(_ context.Context, seq int64, rec entity.Entity) error {
	b, err := EncodeRecord(s.run, seq, rec)
	if err != nil {
		return err
	}
	return s.client.Publish(s.subject, b)
}

func (s *natsSink) Error(_ context.Context, seq int64, cause error) error {
	b, err := EncodeError(s.run, seq, cause)
	if err != nil {
		return err
	}
	return s.client.Publish(s.subject, b)
}

func (s *natsSink) Log(_ context.Context, ev events.LogEvent) error {
	b, err := EncodeLog(s.run, ev)
	if err != nil {
		return err
	}
	return s.client.Publish(s.subject, b)
}

func (s *natsSink) Close() error {
	return s.client.Flush()
}

// Logger returns an events.Logger that forwards every log event to s.
// Delivery failures are logged and otherwise ignored.
func Logger(s Sink) events.Logger {
	return &sinkLogger{sink: s}
}

type sinkLogger struct {
	sink Sink
}

func (l *sinkLogger) LogError(text string)       { l.log(events.SeverityError, text) }
func (l *sinkLogger) LogWarning(text string)     { l.log(events.SeverityWarning, text) }
func (l *sinkLogger) LogInformation(text string) { l.log(events.SeverityInformation, text) }

func (l *sinkLogger) log(sev events.Severity, text string) {
	ev := events.LogEvent{Severity: sev, Text: text, Timestamp: strfmt.DateTime(time.Now().UTC())}
	if err := l.sink.Log(context.Background(), ev); err != nil {
		slog.Error("failed to deliver log event", slogx.Error(err), slogx.LoggerName("sink"))
	}
}
