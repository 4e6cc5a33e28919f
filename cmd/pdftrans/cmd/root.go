package cmd

import (
	"github.com/spf13/cobra"

	"github.com/boyingliu01/pdf-translation/internal/config"
	"github.com/boyingliu01/pdf-translation/pkg/log"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pdftrans",
	Short: "Translate text-extractable documents with an LLM backend",
	Long: `pdftrans translates plain-text and markdown documents page by page
through an OpenAI-compatible model, writing mono and dual-language
output variants next to the source (or into a chosen directory).

Common workflows:

  Create a starter config:
    pdftrans create-config

  Translate a single document:
    pdftrans translate -i report.txt --lang-out zh

  Watch directories and translate new documents on a schedule:
    pdftrans watch

Configuration lives in a JSON file (default: config/config.json);
every key can be overridden with a PDFTRANS_* environment variable,
e.g. PDFTRANS_OPENAI_API_KEY.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config/config.json", "config file path")
}

// loadConfig reads the shared config file and raises the log level
// when debug is enabled.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := log.LevelInfo
	if cfg.Debug {
		level = log.LevelDebug
	}
	if cfg.LogFile != "" {
		fl, err := log.NewFileLogger(cfg.LogFile, level)
		if err != nil {
			return nil, err
		}
		log.UseLogger(fl.Logger)
	} else {
		log.InitLogger(level)
	}
	return cfg, nil
}
