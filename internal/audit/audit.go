// Package audit maintains the bank's append-only audit trail: one timestamped
// free-text line per meaningful state change. It is deliberately separate from
// operational logging; the trail file is the durable record the rest of the
// system treats as write-only.
package audit

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

type Logger struct {
	mu   sync.Mutex
	path string
}

// Open ensures the trail file exists and returns a logger appending to it.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit.Open: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("audit.Open: %w", err)
	}
	return &Logger{path: path}, nil
}

// Event appends one line to the trail. Ordering across concurrent callers is
// append order on the file, not globally sequenced with ledger mutations.
// Write failures are reported to the operational log only; the capability is
// write-only and callers have no recovery path for a lost audit line.
func (l *Logger) Event(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("audit trail unavailable", "error", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf("[%s]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
	if _, err := f.WriteString(line); err != nil {
		slog.Error("audit write failed", "error", err)
	}
}

// Read returns every recorded line, oldest first.
func (l *Logger) Read() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("audit.Read: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit.Read: %w", err)
	}
	return lines, nil
}
