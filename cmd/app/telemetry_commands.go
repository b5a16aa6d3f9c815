package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/tenantcrypto/cmd/app/commands"
	"github.com/allisson/tenantcrypto/internal/app"
	"github.com/allisson/tenantcrypto/internal/config"
)

func getTelemetryCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "crypto-stats",
			Usage: "Show cryptographic usage aggregates for a tenant",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
				},
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Value:   7,
					Usage:   "Trailing window in days (1-365)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				usageUseCase, err := container.UsageUseCase()
				if err != nil {
					return err
				}

				return commands.RunCryptoStats(
					ctx,
					usageUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					int(cmd.Int("days")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "prune-usage",
			Usage: "Delete usage records older than the retention window",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Usage:   "Delete usage records older than this many days (defaults to USAGE_RETENTION_DAYS)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				days := int(cmd.Int("days"))
				if days == 0 {
					days = cfg.UsageRetentionDays
				}

				usageUseCase, err := container.UsageUseCase()
				if err != nil {
					return err
				}

				return commands.RunPruneUsage(
					ctx,
					usageUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					days,
					cmd.String("format"),
				)
			},
		},
	}
}
