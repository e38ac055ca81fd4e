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
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/detector"
	"github.com/valpere/nepatran/internal/pipeline"
	"github.com/valpere/nepatran/internal/translator"
)

var (
	inputFile  string
	outputFile string
	inputText  string
	sourceLang string
	targetLang string
	requestID  string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text between Nepali and English",
	Long: `Translate text between Nepali (npi_Deva) and English (eng_Latn).

The text comes from the argument, --text, --input or standard input.
With --source auto the language is detected; without --target the other
language of the pair is used. Any other NLLB tag is passed to the model
unchanged, without dictionary normalization.

Examples:
  nepatran translate "How do I apply for citizenship?" -t npi_Deva
  nepatran translate -i answer.md -o answer.np.md -s eng_Latn
  nepatran translate "kasari nagarikta paincha?" --context question`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile != "" && inputFile == outputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		src, tgt, err := resolveLanguages(text, sourceLang, targetLang)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sess, err := buildSession(ctx, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		var opts []pipeline.Option
		if requestID != "" {
			opts = append(opts, pipeline.WithRequestID(requestID))
		}

		result, err := sess.pipeline.Run(ctx, text, src, tgt, opts...)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default is standard output)")
	translateCmd.Flags().StringVar(&inputText, "text", "", "Text to translate")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language tag (eng_Latn, npi_Deva or auto)")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language tag (default is the other language of the pair)")
	translateCmd.Flags().StringVar(&requestID, "request-id", "", "Request ID for logs and the debug trace")

	translateCmd.Flags().String("context", internal.ContextAnswer, "Normalization context (answer or question)")
	translateCmd.Flags().String("backend", "nllb", "Model backend ("+strings.Join(translator.Backends, ", ")+")")
	translateCmd.Flags().String("model", "", "Model name for the backend")
	translateCmd.Flags().String("base-url", "", "Model server URL")
	translateCmd.Flags().String("credentials", "", "Path to Google Cloud credentials")
	translateCmd.Flags().String("project", "", "Google Cloud project ID")
	translateCmd.Flags().Duration("timeout", 0, "Timeout for one model call")
	translateCmd.Flags().Int("beam-size", 4, "Beam size requested from the model")
	translateCmd.Flags().Int("workers", 1, "Units translated concurrently")
	translateCmd.Flags().Int("rate", 0, "Maximum model calls per minute (0 = unlimited)")
	translateCmd.Flags().String("debug-sink", "json", "Debug sink (json, sqlite, none)")
	translateCmd.Flags().String("debug-json", "", "JSON debug file path")

	bindFlag(translateCmd, "pipeline.context", "context")
	bindFlag(translateCmd, "model.backend", "backend")
	bindFlag(translateCmd, "model.name", "model")
	bindFlag(translateCmd, "model.base_url", "base-url")
	bindFlag(translateCmd, "model.credentials", "credentials")
	bindFlag(translateCmd, "model.project_id", "project")
	bindFlag(translateCmd, "model.timeout", "timeout")
	bindFlag(translateCmd, "model.beam_size", "beam-size")
	bindFlag(translateCmd, "pipeline.workers", "workers")
	bindFlag(translateCmd, "pipeline.rate_per_minute", "rate")
	bindFlag(translateCmd, "debug.backend", "debug-sink")
	bindFlag(translateCmd, "debug.json_path", "debug-json")
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case inputText != "":
		return inputText, nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read standard input: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// resolveLanguages fills in an auto source and a missing target.
func resolveLanguages(text, src, tgt string) (string, string, error) {
	if src == "" || src == "auto" {
		detected, ok := detector.New().Detect(text)
		if !ok {
			return "", "", fmt.Errorf("could not detect the source language, pass --source")
		}
		logger.Info("detected source language", "source", detected)
		src = detected
	}

	if tgt == "" {
		switch src {
		case internal.LangEnglish:
			tgt = internal.LangNepali
		case internal.LangNepali:
			tgt = internal.LangEnglish
		default:
			return "", "", fmt.Errorf("--target is required for source %q", src)
		}
	}
	return src, tgt, nil
}

func writeOutput(stdout io.Writer, text string) error {
	if outputFile == "" {
		_, err := fmt.Fprintln(stdout, text)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info("translation written", "path", outputFile)
	return nil
}
