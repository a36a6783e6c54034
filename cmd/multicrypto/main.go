// Package main provides the multicrypto command line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/klingon-exchange/multicrypto/internal/chain"
	"github.com/klingon-exchange/multicrypto/internal/config"
	"github.com/klingon-exchange/multicrypto/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "unknown"
)

// app is the state shared by all subcommands.
type app struct {
	cfg    *config.Config
	chains *chain.Registry
	log    *logging.Logger
	out    io.Writer
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"genaddress", "search for a vanity address", runGenAddress},
	{"checkaddress", "list the unspent outputs of an address", runCheckAddress},
	{"transaddress", "translate an address to another coin", runTransAddress},
	{"transprivkey", "translate a WIF private key to another coin", runTransPrivKey},
	{"signmessage", "sign a message with a WIF private key", runSignMessage},
	{"verifymessage", "verify a signed message against an address", runVerifyMessage},
	{"send", "send coins from private keys or script addresses", runSend},
	{"sweep", "move all coins of a private key in batches", runSweep},
	{"ethaddress", "derive or check an Ethereum address", runEthAddress},
	{"history", "list broadcast transactions", runHistory},
	{"keys", "list, reveal or delete stored vanity keys", runKeys},
}

func main() {
	var (
		dataDir     = flag.String("data-dir", "", "Data directory (default: ~/.multicrypto)")
		configFile  = flag.String("config", "", "Config file path (default: <data-dir>/config.yaml)")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides config")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Usage = usage
	flag.Parse()

	log := logging.New(&logging.Config{Level: "info", TimeFormat: time.TimeOnly})
	logging.SetDefault(log)

	if *showVersion {
		fmt.Printf("multicrypto %s (commit: %s)\n", version, commit)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	dir := *dataDir
	if dir == "" {
		dir = config.DefaultConfig().DataDir
	}
	path := *configFile
	if path == "" {
		path = config.Path(dir)
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatal("Failed to load config", "path", path, "error", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log = logging.New(cfg.LoggerConfig())
	logging.SetDefault(log)
	log.Debug("Config loaded", "path", path)

	chains, err := cfg.Chains(chain.Default())
	if err != nil {
		log.Fatal("Failed to apply coin settings", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, chains: chains, log: log, out: os.Stdout}
	if err := a.run(ctx, flag.Args()); err != nil {
		log.Error("Command failed", "command", flag.Arg(0), "error", err)
		stop()
		os.Exit(1)
	}
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage: multicrypto [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nFlags:\n")
	flag.PrintDefaults()
}

// run dispatches args[0] to its subcommand.
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, a, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q", args[0])
}

// flagSet returns a flag set for a subcommand that reports errors instead of
// exiting.
func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// coin looks up a coin by symbol, case insensitively.
func (a *app) coin(symbol string) (*chain.Params, error) {
	if symbol == "" {
		return nil, fmt.Errorf("no coin symbol given, supported coins are: %s", strings.Join(a.chains.List(), ","))
	}
	return a.chains.Lookup(strings.ToUpper(symbol))
}

// required fails when any of the named string flags is empty.
func required(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil || f.Value.String() == "" {
			return fmt.Errorf("%s: flag -%s is required", fs.Name(), name)
		}
	}
	return nil
}

// splitList splits a comma separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
