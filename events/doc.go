// Package events carries the log side channel of a script run: errors,
// warnings and information records the script emits while it produces
// output.
//
// Design decisions:
//   - Narrow interface: Logger is LogError, LogWarning and LogInformation
//   - Side channel only: log events never enter the output sequence
//   - Pluggable sinks: slog (default), an in-memory Recorder, a console host
//     writer and Tee to fan out to several of them
//
// Event hierarchy:
//   - LogEvent: one record from a script run
//     ├── SeverityError: writeError, console.error and uncaught exceptions
//     ├── SeverityWarning: writeWarning and console.warn
//     └── SeverityInformation: writeInformation, console.log and console.info
//
// Example usage:
//
//	rec := events.NewRecorder()
//	items, err := scriptbridge.RunScript(ctx, script, scriptbridge.WithLogger(rec))
//	for _, ev := range rec.Events() {
//	    fmt.Println(ev.Severity, ev.Text)
//	}
//
// Thread Safety:
// Loggers are called from the goroutine that runs the script. Every Logger in
// this package is safe for concurrent use.
package events
