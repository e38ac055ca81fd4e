// Package cache implements the file-backed translation cache and debug sink.
//
// The CSV cache is an append-only table: rows are never rewritten, a lookup
// scans the file in order and the first matching row wins.
package cache

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/valpere/nepatran/internal"
)

// Header is the first row of every cache file.
var Header = []string{"target_language_tag", "Original Sentence", "Translated Sentence", "context"}

const (
	colTarget = iota
	colOriginal
	colTranslated
	colContext
	numCols
)

// CSV is safe for concurrent use within one process. Each row is appended
// with a single write on an O_APPEND handle so concurrent writers never
// interleave partial rows.
type CSV struct {
	path string
	mu   sync.RWMutex
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Path returns the cache file location.
func (c *CSV) Path() string {
	return c.path
}

// Lookup returns the translation of the first row matching req. A missing
// file is a miss, not an error.
func (c *CSV) Lookup(ctx context.Context, req internal.TranslationRequest) (string, bool, error) {
	var (
		found string
		ok    bool
	)
	err := c.scan(ctx, func(rec internal.CacheRecord) bool {
		if rec.Key() == req {
			found, ok = rec.TranslatedText, true
			return false
		}
		return true
	})
	if err != nil {
		return "", false, err
	}
	return found, ok, nil
}

// Store appends rec, writing the header first when the file is empty.
func (c *CSV) Store(ctx context.Context, rec internal.CacheRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open cache: %w", internal.ErrPersistence, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: stat cache: %w", internal.ErrPersistence, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if info.Size() == 0 {
		w.Write(Header)
	}
	w.Write([]string{rec.TargetLang, rec.OriginalText, rec.TranslatedText, rec.Context})
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%w: encode row: %w", internal.ErrPersistence, err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("%w: append row: %w", internal.ErrPersistence, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close cache: %w", internal.ErrPersistence, err)
	}
	return nil
}

// List returns every record in file order.
func (c *CSV) List(ctx context.Context) ([]internal.CacheRecord, error) {
	var out []internal.CacheRecord
	err := c.scan(ctx, func(rec internal.CacheRecord) bool {
		out = append(out, rec)
		return true
	})
	return out, err
}

// Stats summarises the cache contents.
type Stats struct {
	Records   int            `json:"records"`
	ByTarget  map[string]int `json:"by_target"`
	ByContext map[string]int `json:"by_context"`
}

func (c *CSV) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByTarget: map[string]int{}, ByContext: map[string]int{}}
	err := c.scan(ctx, func(rec internal.CacheRecord) bool {
		stats.Records++
		stats.ByTarget[rec.TargetLang]++
		stats.ByContext[rec.Context]++
		return true
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// scan calls fn for every data row until fn returns false. Rows with fewer
// than four fields are skipped.
func (c *CSV) scan(ctx context.Context, fn func(internal.CacheRecord) bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open cache: %w", internal.ErrPersistence, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: read header: %w", internal.ErrPersistence, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read cache: %w", internal.ErrPersistence, err)
		}
		if len(row) < numCols {
			continue
		}
		rec := internal.CacheRecord{
			TargetLang:     row[colTarget],
			OriginalText:   row[colOriginal],
			TranslatedText: row[colTranslated],
			Context:        row[colContext],
		}
		if !fn(rec) {
			return nil
		}
	}
}
