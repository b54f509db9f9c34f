// Package logger wires the standard logger to stdout plus a size-rotated
// file so daily runs leave an auditable trail.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// rotator is an io.Writer that rolls the log file over once it exceeds
// MaxSize, keeping MaxBackups numbered copies (premarket.log.1 newest).
type rotator struct {
	filename   string
	maxSize    int64
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

var currentLevel = "INFO"

// Setup routes the standard logger to stdout and a rotating file under
// dir. The level string gates Debugf; unknown values mean INFO.
func Setup(dir, level string, maxSizeMB int64, maxBackups int) {
	currentLevel = strings.ToUpper(level)

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Failed to create log dir, using stdout only: %v", err)
		return
	}

	r := &rotator{
		filename:   filepath.Join(dir, "premarket.log"),
		maxSize:    maxSizeMB * 1024 * 1024,
		maxBackups: maxBackups,
	}
	if err := r.open(); err != nil {
		log.Printf("Failed to open log file, using stdout only: %v", err)
		return
	}

	log.SetOutput(io.MultiWriter(os.Stdout, r))
	log.SetFlags(log.LstdFlags)
}

// Debugf logs only when the configured level is DEBUG.
func Debugf(format string, args ...interface{}) {
	if currentLevel == "DEBUG" {
		log.Printf("[DEBUG] "+format, args...)
	}
}

func (r *rotator) open() error {
	info, err := os.Stat(r.filename)
	if os.IsNotExist(err) {
		return r.create()
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *rotator) create() error {
	f, err := os.OpenFile(r.filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

func (r *rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	if r.size+int64(len(p)) > r.maxSize {
		if err := r.rotate(); err != nil {
			// Keep writing to the oversized file rather than drop lines.
			fmt.Fprintf(os.Stderr, "Log rotation failed: %v\n", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

func (r *rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
	}

	// Shift log.1 -> log.2 -> ... before the live file becomes log.1.
	for i := r.maxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", r.filename, i+1))
	}
	if _, err := os.Stat(r.filename); err == nil {
		os.Rename(r.filename, r.filename+".1")
	}

	return r.create()
}
