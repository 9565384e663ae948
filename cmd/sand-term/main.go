package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"mad-sand/internal/app"
	"mad-sand/internal/audio"
	"mad-sand/internal/engine"
	"mad-sand/internal/term"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg app.Config, opts engine.Options, logger *log.Logger) error {
	sinks, err := cfg.OpenSinks(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Printf("close: %v", err)
		}
	}()

	// Logged before the screen takes over the terminal.
	var player *audio.Player
	if cfg.Audio {
		player = audio.NewPlayer(0.5, float64(cfg.Width))
		if err := player.Start(); err != nil {
			logger.Printf("audio disabled: %v", err)
			player = nil
		} else {
			defer player.Close()
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	out := term.NewPresenter(screen, cfg.Width, cfg.Height, cfg.Tile)
	eng, err := engine.New(opts, engine.Tee(out, sinks.Presenter()))
	if err != nil {
		return err
	}
	ctrl := term.NewController(eng, out)
	if player != nil {
		ctrl.OnTick = player.Observe
		ctrl.OnPause = player.SetPaused
	}

	return ctrl.Run(ctx, screen, cfg.TPS)
}
