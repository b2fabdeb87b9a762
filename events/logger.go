package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/casualjim/scriptbridge/pkg/slogx"
	"github.com/fatih/color"
	"github.com/go-openapi/strfmt"
)

// Severity classifies a log event.
type Severity uint8

// Severities, most severe first.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

// MarshalText encodes s as its lower-case name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, sev := range []Severity{SeverityError, SeverityWarning, SeverityInformation} {
		if sev.String() == string(text) {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// LogEvent is a single record from a script's side channel.
type LogEvent struct {
	Severity  Severity        `json:"severity"`
	Text      string          `json:"text"`
	Timestamp strfmt.DateTime `json:"timestamp"`
}

// Logger receives a script's error, warning and information records.
type Logger interface {
	LogError(text string)
	LogWarning(text string)
	LogInformation(text string)
}

// Emit routes ev to the matching Logger method.
func Emit(l Logger, ev LogEvent) {
	switch ev.Severity {
	case SeverityError:
		l.LogError(ev.Text)
	case SeverityWarning:
		l.LogWarning(ev.Text)
	default:
		l.LogInformation(ev.Text)
	}
}

// Slog returns a Logger that writes to l, or to slog.Default() when l is nil.
func Slog(l *slog.Logger) Logger {
	return &slogLogger{logger: l}
}

type slogLogger struct {
	logger *slog.Logger
}

func (s *slogLogger) get() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

func (s *slogLogger) LogError(text string) {
	s.get().LogAttrs(context.Background(), slog.LevelError, text, slogx.LoggerName("script"))
}

func (s *slogLogger) LogWarning(text string) {
	s.get().LogAttrs(context.Background(), slog.LevelWarn, text, slogx.LoggerName("script"))
}

func (s *slogLogger) LogInformation(text string) {
	s.get().LogAttrs(context.Background(), slog.LevelInfo, text, slogx.LoggerName("script"))
}

// Recorder is a Logger that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []LogEvent
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) LogError(text string)       { r.add(SeverityError, text) }
func (r *Recorder) LogWarning(text string)     { r.add(SeverityWarning, text) }
func (r *Recorder) LogInformation(text string) { r.add(SeverityInformation, text) }

func (r *Recorder) add(sev Severity, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, LogEvent{
		Severity:  sev,
		Text:      text,
		Timestamp: strfmt.DateTime(time.Now()),
	})
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Texts returns the text of every recorded event in arrival order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		texts = append(texts, ev.Text)
	}
	return texts
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Console returns a Logger that prints records the way an interactive shell
// host does: ERROR and WARNING prefixes in colour, information as plain text.
func Console(w io.Writer) Logger {
	return &consoleLogger{w: w}
}

type consoleLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleLogger) LogError(text string) {
	c.print(color.RedString("ERROR: ") + text)
}

func (c *consoleLogger) LogWarning(text string) {
	c.print(color.YellowString("WARNING: ") + text)
}

func (c *consoleLogger) LogInformation(text string) {
	c.print(text)
}

func (c *consoleLogger) print(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

// Tee returns a Logger that forwards every record to each of loggers.
func Tee(loggers ...Logger) Logger {
	return tee(slices.DeleteFunc(slices.Clone(loggers), func(l Logger) bool { return l == nil }))
}

type tee []Logger

func (t tee) LogError(text string) {
	for _, l := range t {
		l.LogError(text)
	}
}

func (t tee) LogWarning(text string) {
	for _, l := range t {
		l.LogWarning(text)
	}
}

func (t tee) LogInformation(text string) {
	for _, l := range t {
		l.LogInformation(text)
	}
}
