package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/nepatran/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- translation_cache is append-only: duplicates are allowed and the oldest row wins
	CREATE TABLE IF NOT EXISTS translation_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target_lang TEXT NOT NULL,
		original_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		context TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- debug_traces keeps every stage of a pipeline run
	CREATE TABLE IF NOT EXISTS debug_traces (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		context TEXT NOT NULL,
		original_text TEXT NOT NULL,
		final_text TEXT NOT NULL,
		trace_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- glossary stores user terms merged into the built-in dictionary at start-up
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_cache_lookup ON translation_cache(target_lang, original_text, context);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Lookup returns the oldest cached translation for req.
func (s *Store) Lookup(ctx context.Context, req internal.TranslationRequest) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_cache
		 WHERE target_lang = ? AND original_text = ? AND context = ?
		 ORDER BY id LIMIT 1`,
		req.TargetLang, req.Text, req.Context).Scan(&translated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: cache lookup: %w", internal.ErrPersistence, err)
	}
	return translated, true, nil
}

// Store appends rec. Existing rows for the same key are left alone.
func (s *Store) Store(ctx context.Context, rec internal.CacheRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_cache (target_lang, original_text, translated_text, context, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.TargetLang, rec.OriginalText, rec.TranslatedText, rec.Context, created)
	if err != nil {
		return fmt.Errorf("%w: cache insert: %w", internal.ErrPersistence, err)
	}
	return nil
}

// CacheEntry is a row from the translation_cache table.
type CacheEntry struct {
	ID int64
	internal.CacheRecord
}

// CacheStats summarises the translation cache.
type CacheStats struct {
	TotalEntries  int
	DistinctKeys  int
	TargetLangs   map[string]int
	Contexts      map[string]int
	OldestEntry   *time.Time
	NewestEntry   *time.Time
	DebugTraces   int
	GlossaryTerms int
}

// List returns cache rows, newest first. limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]CacheEntry, error) {
	query := `SELECT id, target_lang, original_text, translated_text, context, created_at FROM translation_cache ORDER BY id DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.ID, &e.TargetLang, &e.OriginalText, &e.TranslatedText, &e.Context, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns summary statistics for the cache, traces and glossary.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{TargetLangs: map[string]int{}, Contexts: map[string]int{}}

	var oldest, newest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			(SELECT COUNT(*) FROM (SELECT DISTINCT target_lang, original_text, context FROM translation_cache)),
			MIN(created_at),
			MAX(created_at),
			(SELECT COUNT(*) FROM debug_traces),
			(SELECT COUNT(*) FROM glossary)
		FROM translation_cache`).Scan(
		&stats.TotalEntries,
		&stats.DistinctKeys,
		&oldest,
		&newest,
		&stats.DebugTraces,
		&stats.GlossaryTerms,
	)
	if err != nil {
		return nil, err
	}
	stats.OldestEntry = parseTime(oldest)
	stats.NewestEntry = parseTime(newest)

	if err := s.countBy(ctx, "target_lang", stats.TargetLangs); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "context", stats.Contexts); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy fills out with row counts grouped by column, which must be a
// trusted column name.
func (s *Store) countBy(ctx context.Context, column string, out map[string]int) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM translation_cache GROUP BY %s`, column, column))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		out[key] = n
	}
	return rows.Err()
}

// Clear removes all cache rows. Traces and glossary terms are kept.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearTraces removes all debug traces.
func (s *Store) ClearTraces(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debug_traces`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SaveTrace stores a pipeline trace. A trace without a request ID gets one.
func (s *Store) SaveTrace(ctx context.Context, trace *internal.DebugTrace) error {
	id := trace.RequestID
	if id == "" {
		id = uuid.NewString()
	}
	created := trace.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	data, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("%w: encode trace: %w", internal.ErrPersistence, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO debug_traces (id, source_lang, target_lang, context, original_text, final_text, trace_json, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, trace.SourceLang, trace.TargetLang, trace.Context, trace.OriginalSentence, trace.FinalResponse, string(data), created)
	if err != nil {
		return fmt.Errorf("%w: trace insert: %w", internal.ErrPersistence, err)
	}
	return nil
}

// GetTrace loads a stored trace by request ID.
func (s *Store) GetTrace(ctx context.Context, id string) (*internal.DebugTrace, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT trace_json FROM debug_traces WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trace not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	var trace internal.DebugTrace
	if err := json.Unmarshal([]byte(data), &trace); err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", id, err)
	}
	return &trace, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func parseTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return &t
		}
	}
	return nil
}
