// Command verdant is the offline-first Verdant client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/mmynk/verdant/pkg/logging"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register":   {"register --email E --name N --password P", cmdRegister},
	"login":      {"login --email E --password P", cmdLogin},
	"logout":     {"logout", cmdLogout},
	"groups":     {"groups", cmdGroups},
	"show":       {"show GROUP_ID", cmdShow},
	"watch":      {"watch GROUP_ID", cmdWatch},
	"expense":    {"expense GROUP_ID --title T --amount A [--category C] [--mode M]", cmdExpense},
	"say":        {"say GROUP_ID MESSAGE", cmdSay},
	"reminders":  {"reminders [list|add|delete|run]", cmdReminders},
	"ledger":     {"ledger", cmdLedger},
	"scan":       {"scan IMAGE [--save]", cmdScan},
	"categories": {"categories [list|add NAME|delete ID]", cmdCategories},
	"savings":    {"savings [show|deposit|withdraw|goal|history]", cmdSavings},
	"budget":     {"budget [AMOUNT] [--name N]", cmdBudget},
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: verdant [--offline] COMMAND [ARGS]")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  verdant %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr)
	flag.PrintDefaults()
}

func main() {
	offline := flag.Bool("offline", false, "do not contact the server")
	level := flag.String("log-level", os.Getenv("LOG_LEVEL"), "log level (debug, info, warn, error)")
	flag.CommandLine.SetInterspersed(false)
	flag.Usage = usage
	flag.Parse()

	logging.SetupWithLevel(logging.ParseLevel(*level))

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, *offline)
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := cmd.run(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// parseFlags parses a subcommand's flags and returns its positional
// arguments, requiring exactly n of them when n >= 0.
func parseFlags(fs *flag.FlagSet, args []string, n int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if n >= 0 && len(rest) != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", fs.Name(), n, len(rest))
	}
	return rest, nil
}
