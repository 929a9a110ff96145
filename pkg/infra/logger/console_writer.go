package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// ConsoleHook mirrors every entry to w when the logger output is a file.
type ConsoleHook struct {
	w io.Writer
}

func NewConsoleHook(w io.Writer) *ConsoleHook {
	return &ConsoleHook{w: w}
}

func (h *ConsoleHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(line)
	return err
}

func (h *ConsoleHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
