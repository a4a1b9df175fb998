package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/propdoc/internal"
	pkgconfig "github.com/starford/propdoc/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func generate(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithWatch(cmd.Bool("watch")))
	if err := internal.Generate(ctx, opts...); err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	return nil
}

func check(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Check(ctx, opts...)
}

func preview(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Preview(ctx, int(cmd.Int("width")), opts...)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func importProperties(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Import(ctx, cmd.String("from"), opts...)
}

func main() {
	cmd := &cli.Command{
		Name:  "propdoc",
		Usage: "Render a property hierarchy into a Markdown document with a linked outline and reference table",
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
				Name:   "generate",
				Usage:  "Render the document and write it to the output file",
				Action: generate,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Regenerate whenever the property source changes",
					},
				},
			},
			{
				Name:   "check",
				Usage:  "Exit non-zero and print a diff when the output file is out of date",
				Action: check,
			},
			{
				Name:   "preview",
				Usage:  "Render the document styled for the terminal",
				Action: preview,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "width",
						Usage: "Word wrap column (0 = renderer default)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the rendered document over HTTP",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the document as MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "import",
				Usage:  "Copy a YAML property tree into the SQLite source",
				Action: importProperties,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "YAML property file to import",
						Required: true,
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
