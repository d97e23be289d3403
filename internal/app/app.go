package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ccastromar/wfx-bot/internal/bot"
	"github.com/ccastromar/wfx-bot/internal/config"
	"github.com/ccastromar/wfx-bot/internal/httpx"
	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/runtime"
	"github.com/ccastromar/wfx-bot/internal/sd"
	"github.com/ccastromar/wfx-bot/internal/waifu"
)

// gateway is the chat side of the app; *bot.Bot in production.
type gateway interface {
	Run(ctx context.Context) error
	Connected() bool
}

type App struct {
	guide *config.Guide
	waifu *waifu.Client
	sd    *sd.Client
	bot   gateway
	http  *HTTPServer
}

// New builds every long lived component once. Any error here is a
// startup failure.
func New(env *config.EnvVars) (*App, error) {
	guide, err := config.LoadGuide(env.DefinitionsDir)
	if err != nil {
		return nil, err
	}

	waifuClient, err := waifu.New(env.WaifuToken,
		waifu.WithBaseURL(env.WaifuBaseURL),
		waifu.WithTimeouts(httpx.Profile{ConnectTimeout: env.ConnectTimeout, Timeout: env.WaifuTimeout}),
	)
	if err != nil {
		return nil, err
	}

	sdClient, err := sd.New(env.SDBaseURL,
		sd.WithTimeouts(httpx.Profile{ConnectTimeout: env.ConnectTimeout, Timeout: env.SDTimeout}),
	)
	if err != nil {
		return nil, err
	}

	b, err := bot.New(env.DiscordToken, env.DiscordGuildID, bot.Deps{
		Reactions:    waifuClient,
		Generator:    sdClient,
		Guide:        guide,
		MediaTimeout: env.MediaTimeout,
		ReadFile:     assetReader(env.DefinitionsDir),
	})
	if err != nil {
		return nil, err
	}

	rt := &runtime.Runtime{
		GuideLoaded: true,
		Gateway:     b,
		Diffusion:   sdClient,
	}

	logx.Info("App", "waifu backend %s, stable diffusion backend %s", env.WaifuBaseURL, env.SDBaseURL)

	return &App{
		guide: guide,
		waifu: waifuClient,
		sd:    sdClient,
		bot:   b,
		http:  NewHTTPServer(env.HTTPPort, rt),
	}, nil
}

var readFile = os.ReadFile

// assetReader resolves guide images relative to the working directory first
// and then next to the definitions directory.
func assetReader(definitionsDir string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		data, err := readFile(path)
		if err == nil || filepath.IsAbs(path) {
			return data, err
		}
		alt := filepath.Join(filepath.Dir(filepath.Clean(definitionsDir)), path)
		if data, altErr := readFile(alt); altErr == nil {
			return data, nil
		}
		return nil, fmt.Errorf("asset %s: %w", path, err)
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.bot.Run(gctx)
	})

	g.Go(func() error {
		return a.http.Start(gctx)
	})

	logx.Info("App", "wfx-bot started")

	return g.Wait()
}
