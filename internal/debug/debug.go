package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/jls/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// logOutput is the writer for log output. Defaults to stderr: stdout carries
// the protocol stream and must never receive log text.
var logOutput io.Writer = os.Stderr

// logFile holds the open file handle if log output goes to a file
var logFile *os.File

// logMutex protects access to log output
var logMutex sync.Mutex

// SetOutput sets a custom writer for log output.
// Pass nil to disable log output entirely.
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logOutput = w
}

// InitLogFile redirects logging to a timestamped file under the OS temp dir.
// Returns the path to the log file. Call Close when done.
func InitLogFile() (string, error) {
	logMutex.Lock()
	defer logMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "jls-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("jls-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = file
	logOutput = file
	return logPath, nil
}

// Close closes the log file if one is open.
func Close() error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		logOutput = os.Stderr
		return err
	}
	return nil
}

// IsDebugEnabled returns true if verbose debug logging is enabled
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}
	return os.Getenv("JLS_DEBUG") == "1" || os.Getenv("JLS_DEBUG") == "true"
}

func write(level, format string, args ...interface{}) {
	logMutex.Lock()
	w := logOutput
	logMutex.Unlock()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "["+level+"] "+format+"\n", args...)
}

// Infof logs informational messages. Always emitted to the configured sink.
func Infof(format string, args ...interface{}) {
	write("INFO", format, args...)
}

// Warnf logs warnings. Always emitted to the configured sink.
func Warnf(format string, args ...interface{}) {
	write("WARN", format, args...)
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	write("DEBUG:"+component, format, args...)
}

// LogLSP provides debug logging for protocol traffic
func LogLSP(format string, args ...interface{}) {
	Log("LSP", format, args...)
}

// LogCompile provides debug logging for compilation activity
func LogCompile(format string, args ...interface{}) {
	Log("COMPILE", format, args...)
}

// LogIndex provides debug logging for reference-index activity
func LogIndex(format string, args ...interface{}) {
	Log("INDEX", format, args...)
}

// LogWatch provides debug logging for file-watcher activity
func LogWatch(format string, args ...interface{}) {
	Log("WATCH", format, args...)
}
