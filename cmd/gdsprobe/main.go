package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/fbnative/config"
	"github.com/wippyai/fbnative/gds"
	"github.com/wippyai/fbnative/loader"
	"github.com/wippyai/fbnative/registry"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to YAML config file")
		libs        = flag.String("lib", "", "Client library candidates (comma-separated)")
		wasmFile    = flag.String("wasm", "", "Client library compiled to WebAssembly (implies -list)")
		dbPath      = flag.String("db", "", "Database to attach to")
		user        = flag.String("user", os.Getenv("ISC_USER"), "User name")
		password    = flag.String("password", os.Getenv("ISC_PASSWORD"), "Password")
		charset     = flag.String("charset", "UTF8", "Connection character set")
		query       = flag.String("sql", "SELECT RDB$RELATION_ID, CURRENT_TIMESTAMP FROM RDB$DATABASE", "Query to run")
		limit       = flag.Int("limit", 100, "Maximum rows to fetch (0 for all)")
		list        = flag.Bool("list", false, "List entry points and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fail(err)
	}
	if *libs != "" {
		cfg.Library.Candidates = strings.Split(*libs, ",")
	}
	if *wasmFile != "" {
		cfg.Library.Wasm = *wasmFile
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fail(err)
	}
	defer logger.Sync()
	registry.SetLogger(logger)
	gds.SetLogger(logger)

	if *list || cfg.Library.Wasm != "" {
		if err := listSymbols(context.Background(), cfg); err != nil {
			fail(err)
		}
		return
	}

	if *dbPath == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: gdsprobe -list [-lib names] [-config file]")
		fmt.Fprintln(os.Stderr, "       gdsprobe -wasm <client.wasm>")
		fmt.Fprintln(os.Stderr, "       gdsprobe -db <database> [-user u -password p] [-sql query]")
		fmt.Fprintln(os.Stderr, "       gdsprobe -db <database> -i  (interactive mode)")
		os.Exit(1)
	}

	dpb := gds.NewDPB().String(gds.DPBLcCtype, *charset)
	if *user != "" {
		dpb.String(gds.DPBUserName, *user)
	}
	if *password != "" {
		dpb.String(gds.DPBPassword, *password)
	}
	target := probeTarget{path: *dbPath, dpb: dpb.Bytes(), limit: *limit}

	s, reg, err := openSession(cfg, logger)
	if err != nil {
		fail(err)
	}
	defer reg.Close()
	defer s.Close()

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fail(fmt.Errorf("interactive mode needs a terminal"))
		}
		if err := runInteractive(s, target, *query); err != nil {
			fail(err)
		}
		return
	}

	res, err := runQuery(s, target, *query)
	if err != nil {
		fail(err)
	}
	printResult(os.Stdout, res, term.IsTerminal(int(os.Stdout.Fd())))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// openSession loads the first configured client library that resolves.
func openSession(cfg *config.Config, logger *zap.Logger) (*gds.Session, *registry.Registry, error) {
	reg := registry.New(loader.Native(), cfg.RegistryOptions(logger)...)
	lease, err := reg.Acquire(cfg.Library.Candidates...)
	if err != nil {
		reg.Close()
		return nil, nil, err
	}
	s, err := gds.NewSession(lease,
		gds.WithDialect(cfg.Session.Dialect),
		gds.WithChunkSize(cfg.Arena.ChunkSize),
		gds.WithLogger(logger),
	)
	if err != nil {
		lease.Close()
		reg.Close()
		return nil, nil, err
	}
	return s, reg, nil
}
