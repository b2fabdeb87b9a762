package slogx

import (
	"fmt"
	"log/slog"
)

const (
	// KeyLoggerName is the attribute key naming the component that logged.
	KeyLoggerName = "logger"
	// KeySession is the attribute key for a script session id.
	KeySession = "session"
	// KeyRun is the attribute key for a run id.
	KeyRun = "run"
)

// Error returns an attribute with the key "error" and the error's message as
// the value. A nil error yields an empty message.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates an attribute from the string representation of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName returns an attribute for the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// Session returns an attribute for a script session id.
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// Run returns an attribute for a run id.
func Run(id string) slog.Attr {
	return slog.String(KeyRun, id)
}
