package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/showcase/internal"
	pkgconfig "github.com/starford/showcase/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func syncAction(local bool) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		opts, err := options(cmd)
		if err != nil {
			return err
		}
		params := internal.SyncParams{
			Limit:  int(cmd.Int("limit")),
			DryRun: cmd.Bool("dry-run"),
		}
		if local {
			return internal.SyncLocal(ctx, params, opts...)
		}
		return internal.Sync(ctx, params, opts...)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, internal.ServeParams{Watch: cmd.Bool("watch")}, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func drafts(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Drafts(ctx, internal.DraftsParams{
		Filter: cmd.String("filter"),
		Limit:  int(cmd.Int("limit")),
		Write:  cmd.Bool("write"),
		Push:   cmd.Bool("push"),
		DryRun: cmd.Bool("dry-run"),
	}, opts...)
}

func update(ctx context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("update: path to an updates file is required")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Update(ctx, internal.UpdateParams{
		File:   file,
		DryRun: cmd.Bool("dry-run"),
	}, opts...)
}

func images(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Images(ctx, internal.ImagesParams{Download: cmd.Bool("download")}, opts...)
}

func limitFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "Only consider the first N projects (0 means all)",
	}
}

func dryRunFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Report what would happen without writing anything",
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "showcase",
		Usage:   "Aggregate portfolio metadata from repositories into a published dataset",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Aggregate every GitHub repository of the owner and publish the dataset",
				Flags:  []cli.Flag{limitFlag(), dryRunFlag()},
				Action: syncAction(false),
			},
			{
				Name:   "sync-local",
				Usage:  "Aggregate the local files and drafts directories and publish the dataset",
				Flags:  []cli.Flag{limitFlag(), dryRunFlag()},
				Action: syncAction(true),
			},
			{
				Name:  "serve",
				Usage: "Serve the published dataset over HTTP",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Re-sync local documents when they change",
					},
				},
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the published dataset to MCP clients over stdio",
				Action: mcp,
			},
			{
				Name:  "drafts",
				Usage: "List repositories without a portfolio document and draft one for each",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Only repositories whose name contains this text",
					},
					limitFlag(),
					&cli.BoolFlag{
						Name:  "write",
						Usage: "Write drafts to the local drafts directory",
					},
					&cli.BoolFlag{
						Name:  "push",
						Usage: "Commit drafts to their repositories",
					},
					dryRunFlag(),
				},
				Action: drafts,
			},
			{
				Name:      "update",
				Usage:     "Apply frontmatter updates from a YAML file to remote documents",
				ArgsUsage: "<updates.yaml>",
				Flags:     []cli.Flag{dryRunFlag()},
				Action:    update,
			},
			{
				Name:  "images",
				Usage: "List screenshots kept in each published project's repository",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "download",
						Usage: "Download images into the images directory",
					},
				},
				Action: images,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
