package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# language spoken when none is given with --language
language: "es"

# word highlighting
pacing:
  # YAML file overriding the built-in per-character rates:
  #   default: 65
  #   languages: {es: 62, en: 60}
  # table_file: "~/.config/nosabos/rates.yml"
  frame_interval: "16ms"
  startup_delay: "300ms"
  trailing_grace: "1s"

# hosted generative AI API
genai:
  # api_key: "your-api-key-here"
  base_url: "https://generativelanguage.googleapis.com"
  text_model: "gemini-2.5-flash"
  speech_model: "gemini-2.5-flash-preview-tts"
  voice: "Kore"
  timeout: "30s"
  requests_per_minute: 60
  max_text_length: 5000

# nosabos serve
proxy:
  addr: ":8080"
  # allowed_origins: ["https://nosabos.app"]
  read_timeout: "15s"
  write_timeout: "90s"

# generated speech cache
cache:
  enabled: true
  # dir: "~/.cache/nosabos/clips"
  memory_mb: 32
  disk_mb: 256
  ttl_days: 7
  compression_level: 3

# sound output; when disabled speech is paced silently
audio:
  enabled: true
  sample_rate: 24000

highlight:
  # named colour, any lipgloss colour, or "none" for [brackets]
  color: "yellow"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the nosabos config file",
	Long:    paragraph(fmt.Sprintf("\n%s the nosabos config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("nosabos config\nnosabos config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("nosabos", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
