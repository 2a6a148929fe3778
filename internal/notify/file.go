package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// FileSink appends lifecycle events to a local file, one line per event.
// It serves shops that want an event trail without a chat integration.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a FileSink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Notify appends a timestamped line. Multi-line messages are collapsed so
// each event stays on one line.
func (f *FileSink) Notify(ctx context.Context, event string, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open notification file: %w", err)
	}
	defer fh.Close()

	oneLine := strings.Join(strings.Fields(message), " ")
	line := fmt.Sprintf("%s [%s] %s\n", time.Now().UTC().Format(time.RFC3339), event, oneLine)
	if _, err := fh.WriteString(line); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}

var _ Notifier = (*FileSink)(nil)
