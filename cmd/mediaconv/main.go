package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memohai/mediaconv/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mediaconv",
	Short: "Telegram bot converting video, circles, voice notes and audio",
	Long: `mediaconv receives Telegram updates through a webhook and answers each
media message with a converted file: videos and video circles become voice
notes, voice notes become MP3 files and audio files become voice notes.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = config.DefaultConfigPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to config file (TOML or YAML)")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
