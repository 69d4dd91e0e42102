package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/gomarket/internal/cli"
	"github.com/Makepad-fr/gomarket/internal/config"
	"github.com/Makepad-fr/gomarket/internal/logging"
	"github.com/Makepad-fr/gomarket/internal/store"
	"github.com/Makepad-fr/gomarket/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}

	// Root flags (apply to every subcommand) override the environment.
	flag.StringVar(&cfg.Store, "store", cfg.Store, "storage backend: file, redis or memory")
	flag.StringVar(&cfg.DataFile, "data", cfg.DataFile, "cart file for the file backend")
	flag.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address (host:port or redis:// URL)")
	flag.StringVar(&cfg.Theme, "theme", cfg.Theme, "color theme: classic, neon or mono")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	noColor := flag.Bool("no-color", false, "disable colors")
	flag.Usage = func() { cli.PrintHelp(os.Stderr); flag.PrintDefaults() }
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		ui.Fail(err.Error())
		return 2
	}
	ui.SetTheme(cfg.Theme)
	if *noColor {
		ui.SetColorForcing(false, true)
	}

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stdout)
		return 2
	}

	log := logging.New(cfg.LogLevel, os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg, log)
	if err != nil {
		ui.Fail("store: " + err.Error())
		return 1
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.WithError(err).Warn("closing store")
		}
	}()
	log.WithField("store", cfg.Store).Debug("store opened")

	code := cli.Run(ctx, args, cli.Options{Store: kv, Logger: log})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
