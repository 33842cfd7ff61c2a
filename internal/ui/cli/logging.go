package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pyindex/internal/core/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logSink is the destination installed as the default slog handler.
type logSink struct {
	level  *slog.LevelVar
	closer io.Closer
}

// SetLevel changes the level of the installed handler in place.
func (l *logSink) SetLevel(level slog.Level) {
	l.level.Set(level)
}

func (l *logSink) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// configureLogging installs a text handler on stderr, or on a rotating file
// when cfg.File is set. verbose forces debug level.
func configureLogging(cfg config.Log, base string, verbose bool, stderr io.Writer) (*logSink, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	sink := &logSink{level: new(slog.LevelVar)}
	sink.level.Set(level)

	output := stderr
	if file := strings.TrimSpace(cfg.File); file != "" {
		logPath := config.ResolveRelative(base, file)
		if fi, err := os.Lstat(logPath); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			rotating := &lumberjack.Logger{
				Filename:   logPath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}
			output = rotating
			sink.closer = rotating
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: sink.level})))
	return sink, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
