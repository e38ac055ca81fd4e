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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/cache"
	"github.com/valpere/nepatran/internal/config"
)

var (
	cacheListLimit int
	clearTraces    bool
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the translation cache",
	Long: `List, summarise and clear the translation cache.

The backend follows cache.backend: "stats" and "list" work on both the CSV
file and the SQLite database, "clear" and "trace" need SQLite. CSV rows are
never rewritten; delete the file to start over.`,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := listRecords(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No entries in the translation cache.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TARGET\tCONTEXT\tORIGINAL\tTRANSLATED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.TargetLang, r.Context, snippet(r.OriginalText), snippet(r.TranslatedText))
		}
		return w.Flush()
	},
}

// listRecords returns up to cacheListLimit records, newest first.
func listRecords(ctx context.Context) ([]internal.CacheRecord, error) {
	if cfg.Cache.Backend == config.BackendSQLite {
		db, err := openStore(cfg.Cache.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		entries, err := db.List(ctx, cacheListLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}
		records := make([]internal.CacheRecord, len(entries))
		for i, e := range entries {
			records[i] = e.CacheRecord
		}
		return records, nil
	}

	records, err := cache.NewCSV(cfg.Cache.CSVPath).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if cacheListLimit > 0 && len(records) > cacheListLimit {
		records = records[:cacheListLimit]
	}
	return records, nil
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Cache.Backend != config.BackendSQLite {
			stats, err := cache.NewCSV(cfg.Cache.CSVPath).Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			fmt.Printf("Cache file:      %s\n", cfg.Cache.CSVPath)
			fmt.Printf("Total entries:   %d\n", stats.Records)
			printCounts("By target:", stats.ByTarget)
			printCounts("By context:", stats.ByContext)
			return nil
		}

		db, err := openStore(cfg.Cache.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}
		fmt.Printf("Database:        %s\n", cfg.Cache.DBPath)
		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Distinct keys:   %d\n", stats.DistinctKeys)
		fmt.Printf("Debug traces:    %d\n", stats.DebugTraces)
		fmt.Printf("Glossary terms:  %d\n", stats.GlossaryTerms)
		if stats.OldestEntry != nil {
			fmt.Printf("Oldest entry:    %s\n", stats.OldestEntry.Format("2006-01-02 15:04"))
			fmt.Printf("Newest entry:    %s\n", stats.NewestEntry.Format("2006-01-02 15:04"))
		}
		printCounts("By target:", stats.TargetLangs)
		printCounts("By context:", stats.Contexts)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from the SQLite cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		wipeCache, wipeTraces, err := clearTargets(cfg.Cache.Backend, clearTraces)
		if err != nil {
			return fmt.Errorf("%w; the CSV cache at %s can simply be deleted", err, cfg.Cache.CSVPath)
		}

		db, err := openStore(cfg.Cache.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if wipeCache {
			n, err := db.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Printf("Cleared %d entries from the translation cache.\n", n)
		}

		if wipeTraces {
			n, err := db.ClearTraces(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to clear traces: %w", err)
			}
			fmt.Printf("Cleared %d debug traces.\n", n)
		}
		return nil
	},
}

// clearTargets picks the SQLite tables that clear empties. The cache table
// is only touched when it is the active cache backend.
func clearTargets(cacheBackend string, traces bool) (wipeCache, wipeTraces bool, err error) {
	wipeCache = cacheBackend == config.BackendSQLite
	if !wipeCache && !traces {
		return false, false, fmt.Errorf("cache backend %q is not sqlite and --traces was not given", cacheBackend)
	}
	return wipeCache, traces, nil
}

var cacheTraceCmd = &cobra.Command{
	Use:   "trace <request-id>",
	Short: "Print a stored debug trace as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cfg.Cache.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		trace, err := db.GetTrace(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "    ")
		return enc.Encode(trace)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheListCmd.Flags().IntVarP(&cacheListLimit, "limit", "n", 50, "Maximum entries to show (0 = all)")
	cacheClearCmd.Flags().BoolVar(&clearTraces, "traces", false, "Also remove stored debug traces")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheTraceCmd)
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(title)
	for _, k := range keys {
		fmt.Printf("  %-14s %d\n", k, counts[k])
	}
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}
