package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts a term, or replaces the target of an existing term
// for the same pair. It returns the row ID.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) (string, error) {
	sourceTerm = norm.NFC.String(strings.TrimSpace(sourceTerm))
	targetTerm = norm.NFC.String(strings.TrimSpace(targetTerm))
	if sourceTerm == "" || targetTerm == "" {
		return "", fmt.Errorf("glossary terms must not be empty")
	}

	id := uuid.NewString()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(source_lang, target_lang, source_term) DO UPDATE SET target_term = excluded.target_term
		 RETURNING id`,
		id, sourceLang, targetLang, sourceTerm, targetTerm).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var (
		where []string
		args  []interface{}
	)
	if sourceLang != "" {
		where = append(where, "source_lang = ?")
		args = append(args, sourceLang)
	}
	if targetLang != "" {
		where = append(where, "target_lang = ?")
		args = append(args, targetLang)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY source_lang, target_lang, created_at, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("glossary term not found: %s", id)
	}
	return nil
}
