package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memohai/mediaconv/internal/config"
	"github.com/memohai/mediaconv/internal/logger"
	"github.com/memohai/mediaconv/internal/telegram"
)

var (
	webhookURL         string
	webhookDropPending bool
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Point Telegram at the configured webhook URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := webhookClient()
		if err != nil {
			return err
		}
		url := strings.TrimSpace(webhookURL)
		if url == "" {
			url = cfg.Telegram.WebhookURL
		}
		if url == "" {
			return fmt.Errorf("webhook url is not configured: set WEBHOOK_URL or pass --url")
		}
		if err := client.RegisterWebhook(url, cfg.Telegram.SecretToken, webhookDropPending); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", url)
		return nil
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the webhook registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := webhookClient()
		if err != nil {
			return err
		}
		if err := client.DeleteWebhook(webhookDropPending); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
		return nil
	},
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the webhook registration reported by Telegram",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := webhookClient()
		if err != nil {
			return err
		}
		info, err := client.WebhookInfo()
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(info, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	webhookSetCmd.Flags().StringVar(&webhookURL, "url", "", "Webhook URL (defaults to telegram.webhook_url)")
	webhookSetCmd.Flags().BoolVar(&webhookDropPending, "drop-pending", false, "Drop updates queued while no webhook was set")
	webhookDeleteCmd.Flags().BoolVar(&webhookDropPending, "drop-pending", false, "Drop queued updates")
	webhookCmd.AddCommand(webhookSetCmd, webhookDeleteCmd, webhookInfoCmd)
	rootCmd.AddCommand(webhookCmd)
}

func webhookClient() (config.Config, *telegram.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	client, err := telegram.NewClient(logger.L, telegramOptions(cfg))
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, client, nil
}
