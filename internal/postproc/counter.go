// Package postproc allocates NC program numbers and emits numbered G-code
// files through a host's post processing engine.
package postproc

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// firstProgramNumber is allocated on a counter's first use.
	firstProgramNumber = 1001
	// uninitializedNumber is what Peek reports before any allocation.
	uninitializedNumber = 1000
)

// ProgramSource allocates NC program numbers, one per emitted program.
type ProgramSource interface {
	// Next allocates and returns the next program number.
	Next() (int, error)
	// Peek returns the last allocated number without consuming one.
	Peek() int
}

// FileCounter persists the last-used program number in a plain text file.
// Allocation is a mutex-guarded read-modify-write so concurrent callers
// never see the same number. When the file is unreadable, corrupt, or
// unwritable, Next falls back to a time-derived number instead of failing;
// the fallback is logged at WARN and reported through OnFallback.
type FileCounter struct {
	mu   sync.Mutex
	path string

	// OnFallback is invoked once per time-derived allocation; nil disables
	// the hook.
	OnFallback func()
}

var (
	_ ProgramSource = (*FileCounter)(nil)
	_ ProgramSource = (*MemoryCounter)(nil)
)

// NewFileCounter returns a counter backed by the file at path. The file is
// created on first allocation.
func NewFileCounter(path string) *FileCounter {
	return &FileCounter{path: path}
}

func (c *FileCounter) Next() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := firstProgramNumber
	data, err := os.ReadFile(c.path)
	switch {
	case err == nil:
		last, perr := strconv.Atoi(strings.TrimSpace(string(data)))
		if perr != nil {
			return c.fallback(perr)
		}
		next = last + 1
	case os.IsNotExist(err):
		// First run.
	default:
		return c.fallback(err)
	}

	if werr := os.WriteFile(c.path, []byte(strconv.Itoa(next)), 0644); werr != nil {
		return c.fallback(werr)
	}
	return next, nil
}

// Peek returns the last-used program number without allocating.
func (c *FileCounter) Peek() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return uninitializedNumber
	}
	last, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return uninitializedNumber
	}
	return last
}

func (c *FileCounter) fallback(cause error) (int, error) {
	n := int(time.Now().Unix()%10000) + 1000
	slog.Warn("program counter unavailable, using time-derived number",
		"path", c.path, "number", n, "error", cause)
	if c.OnFallback != nil {
		c.OnFallback()
	}
	return n, nil
}

// MemoryCounter is an in-memory ProgramSource. The zero value starts at
// 1001, matching a fresh FileCounter.
type MemoryCounter struct {
	mu   sync.Mutex
	last int
}

func (c *MemoryCounter) Next() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == 0 {
		c.last = uninitializedNumber
	}
	c.last++
	return c.last, nil
}

func (c *MemoryCounter) Peek() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == 0 {
		return uninitializedNumber
	}
	return c.last
}
