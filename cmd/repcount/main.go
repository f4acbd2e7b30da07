package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayusman/repcount/internal/app"
	"github.com/ayusman/repcount/internal/config"
	"github.com/ayusman/repcount/internal/logging"
	"github.com/ayusman/repcount/internal/tray"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("repcount", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repcount: %v\n", err)
		return 1
	}

	if printConfig, _ := fs.GetBool("print-config"); printConfig {
		if err := cfg.WriteYAML(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "repcount: %v\n", err)
			return 1
		}
		return 0
	}

	logger := logging.New(cfg.LogLevel(), os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)

	if cfg.Tray.Enabled {
		err = runWithTray(ctx, a, logger)
	} else {
		err = a.Run(ctx)
	}
	if err != nil {
		logger.Error("repcount stopped", "error", err)
		return 1
	}
	return 0
}

// runWithTray runs the frame loop in the background while the tray owns
// the main goroutine. Either side stopping ends the other.
func runWithTray(ctx context.Context, a *app.App, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t := tray.New(logger)
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)
	a.OnRep(t.SetRep)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer t.Stop()
		return a.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		t.Stop()
		return nil
	})

	t.Run()
	cancel()
	return g.Wait()
}
