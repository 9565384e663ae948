//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"mad-sand/internal/app"
	"mad-sand/internal/audio"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg, err := app.Resolve(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	logger := app.NewLogger()

	cat, err := cfg.LoadCatalog(logger)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	opts, err := cfg.EngineOptions(cat)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sinks, err := cfg.OpenSinks(ctx, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Printf("close: %v", err)
		}
	}()

	game, err := app.New(opts, cfg.Scale, cfg.Tile, sinks.Presenter())
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Audio {
		player := audio.NewPlayer(0.5, float64(cfg.Width))
		if err := player.Start(); err != nil {
			logger.Printf("audio disabled: %v", err)
		} else {
			defer player.Close()
			game.OnTick = player.Observe
			game.OnPause = player.SetPaused
		}
	}

	ebiten.SetWindowTitle("mad-sand - " + game.Engine().MaterialName())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Print(err)
	}
}
