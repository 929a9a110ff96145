package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Level is a logrus level name. Empty reads LOG_LEVEL.
	Level string
	// File, when set, receives the logs through an async writer while the
	// console hook keeps printing them to stdout.
	File string
	// Exit is called by Fatal after the log file is flushed. Defaults to os.Exit.
	Exit func(code int)
}

// NewLogger builds the JSON logger shared by all components. The returned
// close func flushes the log file, if any.
func NewLogger(opts Options) (*logrus.Logger, func(), error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(parseLevel(opts.Level))
	logger.SetOutput(os.Stdout)

	if opts.File == "" {
		return logger, func() {}, nil
	}

	logFile := filepath.Clean(opts.File)
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	writer, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(writer)
	logger.AddHook(NewConsoleHook(os.Stdout))

	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	// Fatal skips deferred calls, so the buffered entries are flushed here.
	logger.ExitFunc = func(code int) {
		writer.Close()
		exit(code)
	}

	return logger, writer.Close, nil
}

func parseLevel(level string) logrus.Level {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
