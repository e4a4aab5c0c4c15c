package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/justestif/vibesync/internal/config"
	"github.com/justestif/vibesync/internal/mood"
	"github.com/justestif/vibesync/internal/playlist"
	"github.com/justestif/vibesync/internal/web"
	assets "github.com/justestif/vibesync/web"
)

func serve(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	addr := app.cfg.Server.Addr
	if v := cmd.String("addr"); v != "" {
		addr = v
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         addr,
		Pipeline:     app.service,
		Logger:       app.logger,
		TemplatesFS:  assets.Templates(),
		StaticFS:     assets.Static(),
		WriteTimeout: app.requestBudget(),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run(ctx)
}

func generatePlaylist(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	p, err := app.service.GeneratePlaylist(ctx, cmd.String("mood"), cmd.String("language"))
	if err != nil {
		return cli.Exit(playlist.UserMessage(err), 1)
	}

	if cmd.Bool("json") {
		return printJSON(p)
	}
	printPlaylist(p)
	return nil
}

func detectMood(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	uri, err := readDataURI(cmd.String("image"))
	if err != nil {
		return err
	}

	emotion, err := app.service.DetectMoodFromPhoto(ctx, uri)
	if err != nil {
		return cli.Exit(playlist.UserMessage(err), 1)
	}
	fmt.Println(emotion)

	if !cmd.Bool("playlist") {
		return nil
	}

	p, err := app.service.GeneratePlaylist(ctx, emotion, cmd.String("language"))
	if err != nil {
		return cli.Exit(playlist.UserMessage(err), 1)
	}
	printPlaylist(p)
	return nil
}

func initConfig(_ context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = "config.toml"
	}
	if err := config.CreateConfigFile(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

// readDataURI loads an image file and encodes it as a data URI, the same
// payload the browser sends.
func readDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s does not look like an image (%s)", path, mimeType)
	}
	return mood.Image{MIMEType: mimeType, Data: data}.DataURI(), nil
}

func printPlaylist(p *playlist.Playlist) {
	fmt.Printf("%s\n%s\n%s\n\n", p.Name, p.Description, p.URL)
	for i, t := range p.Tracks {
		fmt.Printf("%2d. %s - %s\n", i+1, t.Name, t.Artist)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
