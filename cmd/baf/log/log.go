package log

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu       sync.Mutex
	logFile  *os.File
	buffered *bufio.Writer
)

type lockedWriter struct{}

func (lockedWriter) Write(p []byte) (int, error) {
	mu.Lock()
	defer mu.Unlock()
	if buffered == nil {
		return len(p), nil
	}
	return buffered.Write(p)
}

// NewLogger logs to stdout and to a timestamped file in logDir. Debug enables debug level
// on both outputs.
func NewLogger(debug bool, logDir string) (*slog.Logger, error) {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	fileName := "baf-log-" + time.Now().Format("2006-01-02-15-04-05") + ".txt"
	f, err := os.OpenFile(filepath.Join(logDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	mu.Lock()
	logFile = f
	buffered = bufio.NewWriterSize(f, 16*1024)
	mu.Unlock()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.String(slog.TimeKey, a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	}

	return slog.New(slog.NewTextHandler(io.MultiWriter(os.Stdout, lockedWriter{}), opts)), nil
}

func FlushLog() {
	mu.Lock()
	defer mu.Unlock()
	if buffered != nil {
		_ = buffered.Flush()
	}
}

func FlushAndClose() {
	mu.Lock()
	defer mu.Unlock()
	if buffered != nil {
		_ = buffered.Flush()
		buffered = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
