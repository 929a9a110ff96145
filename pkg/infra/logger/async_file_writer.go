package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	queueSize     = 1000
	flushInterval = 2 * time.Second
)

// AsyncFileWriter queues log lines and writes them from one goroutine. Lines
// are dropped when the queue is full so logging never blocks a request.
type AsyncFileWriter struct {
	writer    *bufio.Writer
	file      *os.File
	lines     chan []byte
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewAsyncFileWriter(logFile string, bufferSize int) (*AsyncFileWriter, error) {
	file, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	aw := &AsyncFileWriter{
		writer:  bufio.NewWriterSize(file, bufferSize),
		file:    file,
		lines:   make(chan []byte, queueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go aw.run()
	return aw, nil
}

func (aw *AsyncFileWriter) Write(p []byte) (int, error) {
	select {
	case aw.lines <- append([]byte(nil), p...):
	default:
	}
	return len(p), nil
}

func (aw *AsyncFileWriter) run() {
	defer close(aw.stopped)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case line := <-aw.lines:
			aw.write(line)
		case <-ticker.C:
			_ = aw.writer.Flush()
		case <-aw.done:
			for {
				select {
				case line := <-aw.lines:
					aw.write(line)
				default:
					_ = aw.writer.Flush()
					return
				}
			}
		}
	}
}

func (aw *AsyncFileWriter) write(line []byte) {
	if _, err := aw.writer.Write(line); err != nil {
		fmt.Fprintln(os.Stderr, "error writing log data to file:", err)
	}
}

// Close drains queued lines, flushes and closes the file.
func (aw *AsyncFileWriter) Close() {
	aw.closeOnce.Do(func() {
		close(aw.done)
		<-aw.stopped
		_ = aw.file.Close()
	})
}
