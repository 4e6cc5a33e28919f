package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/boyingliu01/pdf-translation/internal/config"
	"github.com/boyingliu01/pdf-translation/internal/engine"
	"github.com/boyingliu01/pdf-translation/internal/pipeline"
	"github.com/boyingliu01/pdf-translation/internal/runner"
	"github.com/boyingliu01/pdf-translation/pkg/sanitize"
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate a single document",
	Example: `  pdftrans translate -i report.txt
  pdftrans translate -i report.txt -o out/ --lang-out fr --pages 1-3
  pdftrans translate -i report.txt --watermark both --no-dual`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		input, _ := flags.GetString("input")
		output, _ := flags.GetString("output")
		langIn, _ := flags.GetString("lang-in")
		langOut, _ := flags.GetString("lang-out")
		noDual, _ := flags.GetBool("no-dual")
		noMono, _ := flags.GetBool("no-mono")
		watermark, _ := flags.GetString("watermark")
		pages, _ := flags.GetString("pages")
		maxPages, _ := flags.GetInt("max-pages-per-part")
		enhance, _ := flags.GetBool("enhance-compatibility")
		glossary, _ := flags.GetBool("glossary")

		if input == "" {
			return fmt.Errorf("missing required flag --input/-i")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		settings, err := buildSettings(cfg, input, output, langIn, langOut)
		if err != nil {
			return err
		}
		settings.NoDual = noDual
		settings.NoMono = noMono
		settings.Watermark = engine.WatermarkMode(watermark)
		settings.Pages = pages
		settings.MaxPagesPerPart = maxPages
		settings.EnhanceCompatibility = enhance
		settings.AutoExtractGlossary = glossary

		outDir := output
		if outDir == "" {
			outDir = filepath.Dir(input)
		}
		banner(cmd, "Document translation")
		cmd.Printf("Input:      %s\n", input)
		cmd.Printf("Config:     %s\n", cfgFile)
		cmd.Printf("Languages:  %s -> %s\n", langIn, langOut)
		cmd.Printf("Output dir: %s\n", outDir)
		cmd.Println(strings.Repeat("=", 60))
		cmd.Println()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := runner.New(pipeline.New(pipeline.Options{Sanitizer: sanitize.Clean}))
		result, err := r.Run(ctx, settings, func(ev engine.Event) {
			if ev.Type != engine.EventProgress {
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\r[progress] %5.1f%% - %s", ev.OverallProgress, ev.Stage)
		})
		cmd.Println()
		cmd.Println()
		if err != nil {
			banner(cmd, "Translation failed")
			var runErr *runner.RunError
			if errors.As(err, &runErr) {
				cmd.PrintErrf("Error [%s]: %s\n", runErr.Type, runErr.Message)
			} else {
				cmd.PrintErrf("Error: %v\n", err)
			}
			return err
		}

		banner(cmd, "Translation complete")
		if result.DualPath != "" {
			cmd.Printf("Dual output:              %s\n", result.DualPath)
		}
		if result.MonoPath != "" {
			cmd.Printf("Mono output:              %s\n", result.MonoPath)
		}
		if result.NoWatermarkDualPath != "" {
			cmd.Printf("Dual output (plain):      %s\n", result.NoWatermarkDualPath)
		}
		if result.NoWatermarkMonoPath != "" {
			cmd.Printf("Mono output (plain):      %s\n", result.NoWatermarkMonoPath)
		}
		if result.GlossaryPath != "" {
			cmd.Printf("Glossary:                 %s\n", result.GlossaryPath)
		}
		cmd.Printf("Elapsed:                  %.2fs\n", result.TotalSeconds)
		cmd.Printf("Peak memory:              %.2f MB\n", result.PeakMemoryMB)
		cmd.Println(strings.Repeat("=", 60))
		return nil
	},
}

func banner(cmd *cobra.Command, title string) {
	cmd.Println(strings.Repeat("=", 60))
	cmd.Println(title)
	cmd.Println(strings.Repeat("=", 60))
}

// buildSettings combines the shared config with per-run parameters
// into validated engine settings.
func buildSettings(cfg *config.Config, input, output, langIn, langOut string) (engine.Settings, error) {
	tagIn, err := language.Parse(langIn)
	if err != nil {
		return engine.Settings{}, fmt.Errorf("invalid source language %q: %w", langIn, err)
	}
	tagOut, err := language.Parse(langOut)
	if err != nil {
		return engine.Settings{}, fmt.Errorf("invalid target language %q: %w", langOut, err)
	}
	return engine.Settings{
		InputFile: input,
		OutputDir: output,
		LangIn:    tagIn,
		LangOut:   tagOut,
		Vendor:    engine.Vendor(cfg.TranslationEngine),
		OpenAI: engine.OpenAISettings{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		},
		QPS:                cfg.QPS,
		MinTextLength:      cfg.MinTextLength,
		CustomSystemPrompt: cfg.CustomSystemPrompt,
		Debug:              cfg.Debug,
		Watermark:          engine.WatermarkWatermarked,
	}, nil
}

func init() {
	flags := translateCmd.Flags()
	flags.StringP("input", "i", "", "input document path (required)")
	flags.StringP("output", "o", "", "output directory (default: input's directory)")
	flags.String("lang-in", "en", "source language code")
	flags.String("lang-out", "zh", "target language code")
	flags.Bool("no-dual", false, "skip the dual-language output")
	flags.Bool("no-mono", false, "skip the mono-language output")
	flags.String("watermark", "watermarked", "watermark mode: watermarked, no_watermark or both")
	flags.String("pages", "", "pages to translate (e.g. 1,2,1-,-3,3-5)")
	flags.Int("max-pages-per-part", 0, "max pages per part for large documents")
	flags.Bool("enhance-compatibility", false, "write BOM and CRLF line endings")
	flags.Bool("glossary", false, "extract a glossary CSV from translated terms")

	rootCmd.AddCommand(translateCmd)
}
