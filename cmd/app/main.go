package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/til/internal"
	pkgconfig "github.com/starford/til/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithPrune(cmd.Bool("prune")),
	}, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithRewrite(cmd.Bool("rewrite")))

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithWatch(cmd.Bool("watch")))

	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("serve error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.ServeMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp error: %w", err)
	}
	return nil
}

func search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("search: query argument is required")
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Search(ctx, query, int(cmd.Int("limit")), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "til",
		Usage:  "Catalog a today-I-learned notes repository and regenerate its README",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "til.yaml",
				Value:       "til.yaml",
				Sources:     cli.EnvVars("TIL_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "rewrite",
				Usage:   "Rewrite the README in place instead of printing the index",
				Sources: cli.EnvVars("TIL_REWRITE"),
			},
			&cli.BoolFlag{
				Name:  "prune",
				Usage: "Delete catalog rows whose note file no longer exists",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Rebuild, then serve the catalog over HTTP",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Rebuild when notes change or new commits land",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Rebuild, then serve catalog tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "search",
				Usage:     "Full-text search the existing catalog",
				ArgsUsage: "QUERY",
				Action:    search,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 20,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
