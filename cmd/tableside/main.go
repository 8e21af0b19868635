package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/tableside/tableside/internal/client"
	"github.com/tableside/tableside/internal/config"
	"github.com/tableside/tableside/internal/logging"
	"github.com/tableside/tableside/internal/shutdown"
)

const usage = `usage:
  tableside menu
  tableside order  -table N -item ID=QTY ... [-notes TEXT]
  tableside watch  -table N
  tableside admin  list [-filter S]
  tableside admin  set -id N -status S
  tableside admin  archive -id N
  tableside admin  archive-completed
  tableside admin  bulk [-filter S] [-set ID=STATUS ...]
  tableside admin  export [-o FILE]
  tableside admin  show -id N
  tableside admin  menu-add -name S -price P [-desc S] [-image URL]
  tableside admin  qr -table N [-o FILE.png]
  tableside admin  qr-sheet [-page N] [-o FILE.pdf]
  tableside archived list [-filter S]
  tableside archived export [-o FILE]
`

var errUsage = errors.New("invalid usage")

func main() {
	cfg := config.LoadClient()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	a := newApp(cfg, logger, os.Stdout)
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "hata: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg *config.Client
	log zerolog.Logger
	out io.Writer
	api *client.Client
}

func newApp(cfg *config.Client, logger zerolog.Logger, out io.Writer) *app {
	a := &app{cfg: cfg, log: logger, out: out}
	a.api = a.newClient(cfg.CSRFToken)
	return a
}

// newClient builds an API client; an empty csrf leaves the token unset so
// a later Login can supply it.
func (a *app) newClient(csrf string) *client.Client {
	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}),
		client.WithLogger(a.log),
	}
	if csrf != "" {
		opts = append(opts, client.WithCSRFToken(client.StaticToken(csrf)))
	}
	return client.New(a.cfg.BaseURL, opts...)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "menu":
		return a.menu(ctx, args[1:])
	case "order":
		return a.order(ctx, args[1:])
	case "watch":
		return a.watch(ctx, args[1:])
	case "admin":
		return a.admin(ctx, args[1:])
	case "archived":
		return a.archived(ctx, args[1:])
	case "help", "-h", "-help", "--help":
		return flag.ErrHelp
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}
