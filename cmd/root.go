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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/nepatran/internal/config"
)

var version = "0.1.0"

var (
	cfgFile string
	envFile string

	v      = config.New("")
	cfg    *config.Config
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "nepatran",
	Short: "Nepali/English translation pipeline",
	Long: `A CLI that translates text between Nepali and English while preserving
URLs, emails, line breaks, punctuation and **bold** markers.

Text is masked, segmented and normalized against a legal dictionary before
each unit is sent to the model (NLLB server, Ollama, Google Translate or
MyMemory).
Results are cached append-only in CSV or SQLite.

Use "nepatran translate --help" for translation options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.nepatran.yaml or ./.nepatran.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (cache, traces, glossary)")
	rootCmd.PersistentFlags().String("cache", "csv", "Cache backend (csv, sqlite, none)")
	rootCmd.PersistentFlags().String("cache-csv", "", "CSV cache path")

	bindFlag(rootCmd, "log.level", "log-level")
	bindFlag(rootCmd, "log.format", "log-format")
	bindFlag(rootCmd, "cache.db_path", "db")
	bindFlag(rootCmd, "cache.backend", "cache")
	bindFlag(rootCmd, "cache.csv_path", "cache-csv")
}

// bindFlag ties a persistent or local flag of cmd to a config key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := v.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("bind %s: %v", flag, err))
	}
}

func initConfig() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	if err := config.ReadFile(v); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	l, err := loaded.Log.Logger(os.Stderr)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = l
	slog.SetDefault(l)
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", "path", used)
	}
	return nil
}
