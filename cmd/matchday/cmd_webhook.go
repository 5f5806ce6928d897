/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/friendsincode/matchday/internal/webhooks"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage outbound webhooks",
}

var webhookTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test delivery to webhook targets",
	Long: `Send a signed test delivery to --url, or to every MATCHDAY_WEBHOOK_URLS
target when no URL is given. Fails if any target does not answer 2xx.`,
	RunE: runWebhookTest,
}

var (
	webhookURL    string
	webhookSecret string
)

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookTestCmd)

	webhookTestCmd.Flags().StringVar(&webhookURL, "url", "", "Target URL (defaults to the configured targets)")
	webhookTestCmd.Flags().StringVar(&webhookSecret, "secret", "", "Signing secret (defaults to MATCHDAY_WEBHOOK_SECRET)")
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	secret := webhookSecret
	if secret == "" {
		secret = cfg.WebhookSecret
	}
	urls := cfg.WebhookURLs
	if webhookURL != "" {
		urls = []string{webhookURL}
	}
	targets := make([]webhooks.Target, 0, len(urls))
	for _, u := range urls {
		targets = append(targets, webhooks.Target{URL: u, Secret: secret})
	}

	svc := webhooks.NewService(nil, targets, nil, logger)
	return testWebhookTargets(cmd.Context(), svc, targets, cmd.OutOrStdout())
}

// testWebhookTargets reports one line per target and fails if any failed.
func testWebhookTargets(ctx context.Context, svc *webhooks.Service, targets []webhooks.Target, w io.Writer) error {
	if len(targets) == 0 {
		return errors.New("no webhook targets: pass --url or set MATCHDAY_WEBHOOK_URLS")
	}

	failed := 0
	for _, target := range targets {
		if err := svc.Test(ctx, target); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %v\n", target.URL, err)
			continue
		}
		fmt.Fprintf(w, "OK   %s\n", target.URL)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d webhook targets failed", failed, len(targets))
	}
	return nil
}
