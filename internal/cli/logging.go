package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

var (
	logMu   sync.Mutex
	logFile *os.File
)

// initLogging sends log output to stdout and, if path is
// non-empty, appends it to a file.
func initLogging(path string) error {
	logMu.Lock()
	defer logMu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{os.Stdout}
	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = f
		writers = append(writers, f)
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func closeLogging() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile == nil {
		return
	}
	log.SetOutput(os.Stderr)
	logFile.Close()
	logFile = nil
}
