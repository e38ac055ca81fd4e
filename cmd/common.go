/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/valpere/nepatran/internal/cache"
	"github.com/valpere/nepatran/internal/config"
	"github.com/valpere/nepatran/internal/lexicon"
	"github.com/valpere/nepatran/internal/orchestrator"
	"github.com/valpere/nepatran/internal/pipeline"
	"github.com/valpere/nepatran/internal/store"
	"github.com/valpere/nepatran/internal/translator"
	"github.com/valpere/nepatran/internal/validator"
)

// session holds everything a translation needs and what must be closed
// afterwards.
type session struct {
	pipeline *pipeline.Pipeline
	db       *store.Store
}

func (r *session) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// buildSession wires the model backend, the dictionary with glossary
// overrides, the cache and the debug sink described by c.
func buildSession(ctx context.Context, c *config.Config) (*session, error) {
	svc, err := translator.NewService(c.Model.Backend, c.Model.ServiceConfig)
	if err != nil {
		return nil, err
	}
	breaker := translator.NewBreaker(svc, c.Breaker, logger)

	orch := orchestrator.New(breaker, c.Model.ServiceConfig, orchestrator.OrchestratorConfig{
		Timeout:       c.Model.Timeout,
		Workers:       c.Pipeline.Workers,
		RatePerMinute: c.Pipeline.RatePerMinute,
		MaxUnitRunes:  c.Pipeline.MaxUnitRunes,
	}, logger)

	rt := &session{}
	if needsStore(c) {
		if rt.db, err = openStore(c.Cache.DBPath); err != nil {
			return nil, err
		}
	}

	table, err := lexicon.Default()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	if rt.db != nil {
		overrides, err := glossaryOverrides(ctx, rt.db)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if len(overrides) > 0 {
			logger.Debug("applying glossary overrides", "terms", len(overrides))
			table = table.WithOverrides(overrides)
		}
	}

	components := pipeline.Components{
		Translator: orch,
		Normalizer: lexicon.NewNormalizer(table),
		Validator:  validator.New(),
		Logger:     logger,
		Context:    c.Pipeline.Context,
	}

	switch c.Cache.Backend {
	case config.BackendCSV:
		if err := ensureDir(c.Cache.CSVPath); err != nil {
			rt.Close()
			return nil, err
		}
		components.Cache = cache.NewCSV(c.Cache.CSVPath)
	case config.BackendSQLite:
		components.Cache = rt.db
	}

	switch c.Debug.Backend {
	case config.BackendJSON:
		if err := ensureDir(c.Debug.JSONPath); err != nil {
			rt.Close()
			return nil, err
		}
		components.Sink = cache.NewJSONSink(c.Debug.JSONPath)
	case config.BackendSQLite:
		components.Sink = rt.db
	}

	if rt.pipeline, err = pipeline.New(components); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// needsStore reports whether the SQLite database must be opened: either a
// backend lives there or a glossary may exist in it.
func needsStore(c *config.Config) bool {
	if c.Cache.Backend == config.BackendSQLite || c.Debug.Backend == config.BackendSQLite {
		return true
	}
	_, err := os.Stat(c.Cache.DBPath)
	return err == nil
}

func openStore(path string) (*store.Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func glossaryOverrides(ctx context.Context, db *store.Store) ([]lexicon.Override, error) {
	entries, err := db.ListGlossaryTerms(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load glossary: %w", err)
	}
	overrides := make([]lexicon.Override, 0, len(entries))
	for _, e := range entries {
		overrides = append(overrides, lexicon.Override{
			SourceLang: e.SourceLang,
			TargetLang: e.TargetLang,
			SourceTerm: e.SourceTerm,
			TargetTerm: e.TargetTerm,
		})
	}
	return overrides, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
