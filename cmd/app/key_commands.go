package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/tenantcrypto/cmd/app/commands"
	"github.com/allisson/tenantcrypto/internal/app"
	"github.com/allisson/tenantcrypto/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new operator master key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-master-key-2026)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateMasterKey(
					commands.DefaultIO().Writer,
					cmd.String("id"),
				)
			},
		},
		{
			Name:  "rotate-master-key",
			Usage: "Rotate the operator master key by appending a new key to the chain",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "New master key ID (e.g., prod-master-key-2027)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunRotateMasterKey(
					commands.DefaultIO().Writer,
					cmd.String("id"),
					os.Getenv("MASTER_KEYS"),
					os.Getenv("ACTIVE_MASTER_KEY_ID"),
				)
			},
		},
		{
			Name:  "bootstrap-tenant",
			Usage: "Provision the key hierarchy for a tenant",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				tenantKeyUseCase, err := container.TenantKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunBootstrapTenant(
					ctx,
					tenantKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
				)
			},
		},
		{
			Name:  "key-info",
			Usage: "List every key version for a tenant with key material stripped",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
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

				tenantKeyUseCase, err := container.TenantKeyUseCase()
				if err != nil {
					return err
				}

				return commands.RunKeyInfo(
					ctx,
					tenantKeyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-key",
			Usage: "Rotate the active data key for a tenant and purpose",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
				},
				&cli.StringFlag{
					Name:    "purpose",
					Aliases: []string{"p"},
					Value:   "general",
					Usage:   "Key purpose: general, pii, financial, audit, or compliance",
				},
				&cli.StringFlag{
					Name:     "reason",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Rotation reason recorded on the new key version",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotationUseCase, err := container.RotationUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateKey(
					ctx,
					rotationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("purpose"),
					cmd.String("reason"),
				)
			},
		},
		{
			Name:  "rotate-tenant-master-key",
			Usage: "Rotate a tenant's master key and rewrap its data keys",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
				},
				&cli.StringFlag{
					Name:     "reason",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Rotation reason recorded on the new key version",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotationUseCase, err := container.RotationUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateTenantMasterKey(
					ctx,
					rotationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
					cmd.String("reason"),
				)
			},
		},
		{
			Name:  "recovery-bundle",
			Usage: "Generate a one-time recovery bundle for a tenant",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "tenant-id",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Tenant identifier",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				recoveryUseCase, err := container.RecoveryUseCase()
				if err != nil {
					return err
				}

				return commands.RunRecoveryBundle(
					ctx,
					recoveryUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("tenant-id"),
				)
			},
		},
	}
}
