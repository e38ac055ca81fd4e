package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/valpere/nepatran/internal"
)

// JSONSink writes the trace of the latest request to a single file,
// replacing what the previous request wrote.
type JSONSink struct {
	path string
	mu   sync.Mutex
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) SaveTrace(ctx context.Context, trace *internal.DebugTrace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(trace); err != nil {
		return fmt.Errorf("%w: encode trace: %w", internal.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write trace: %w", internal.ErrPersistence, err)
	}
	return nil
}
