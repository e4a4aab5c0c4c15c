// Command vibesync serves the VibeSync web application and runs the mood to
// playlist pipeline from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	configFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("VIBESYNC_CONFIG"),
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with secrets",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override the configured log level (debug, info, warn, error)",
		},
	}

	return &cli.Command{
		Name:    "vibesync",
		Usage:   "Turn a mood into a Spotify playlist",
		Version: "0.1.0",
		Flags:   configFlags,
		Commands: []*cli.Command{
			serveCommand(),
			playlistCommand(),
			detectCommand(),
			configCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: serve,
	}
}

func playlistCommand() *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Generate a playlist for a mood",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "mood",
				Aliases:  []string{"m"},
				Usage:    "How you are feeling",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "language",
				Aliases: []string{"l"},
				Usage:   "Language preference, or \"Any\"",
				Value:   "English",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: generatePlaylist,
	}
}

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Detect a mood from a face photo",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "Path to a JPEG or PNG photo",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "playlist",
				Usage: "Also generate a playlist for the detected mood",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Language preference used with --playlist",
				Value: "English",
			},
		},
		Action: detectMood,
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example configuration file",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:  "path",
						Value: "config.toml",
					},
				},
				Action: initConfig,
			},
		},
	}
}
