package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"goodmorning/internal/config"
	"goodmorning/internal/logging"
	"goodmorning/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications are disabled (notifications.ntfy_topic is not set)")
				return nil
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}

// notifyOutcome pushes the command summary and, when the command itself
// failed, a separate error notification. Delivery problems only warn.
func notifyOutcome(ctx context.Context, cfg *config.Config, logger *slog.Logger, label string, runErr error, send func(notifications.Service) error) {
	svc := notifications.NewService(cfg)
	if err := send(svc); err != nil {
		logging.WarnWithContext(logger, label+" notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, label+" summary was not pushed"),
		)
	}
	if runErr == nil || ctx.Err() != nil {
		return
	}
	if err := svc.NotifyError(ctx, runErr, label); err != nil {
		logging.WarnWithContext(logger, label+" error notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, label+" error was not pushed"),
		)
	}
}
