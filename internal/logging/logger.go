package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler and the attributes stamped on every record.
type Options struct {
	Level string
	// Format is "json" or "text". Anything else is json.
	Format string
	App    string
	Env    string
}

// redacted lists attribute keys whose values never reach the log.
var redacted = map[string]bool{
	"authorization": true,
	"password":      true,
	"secret":        true,
	"access_token":  true,
	"refresh_token": true,
}

const redactedValue = "[redacted]"

// New builds the process logger on stdout.
func New(opts Options) *slog.Logger {
	return NewWithWriter(os.Stdout, opts)
}

// NewWithWriter builds a logger writing to w. An unknown level falls back to info.
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.App != "" {
		logger = logger.With(slog.String("app", opts.App))
	}
	if opts.Env != "" {
		logger = logger.With(slog.String("env", opts.Env))
	}
	return logger
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if redacted[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}
