package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "maunium.net/go/mauflag"

	"github.com/draftpad/urlcontext/pkg/daemon"
)

// Version is the release version. Filled at build time with the -X linker
// flag.
var Version = "0.1.0"

var (
	configPath     = flag.MakeFull("c", "config", "The path to the config file.", "config.yaml").String()
	generateConfig = flag.MakeFull("e", "generate-example-config", "Write the example config to the config path and quit.", "false").Bool()
	version        = flag.MakeFull("v", "version", "Print the version and quit.", "false").Bool()
	wantHelp, _    = flag.MakeHelpFlag()
)

func main() {
	flag.SetHelpTitles(
		"urlcontextd - URL context metadata and paste store services.",
		"urlcontextd [-h] [-c <path>] [-e] [-v]",
	)
	err := flag.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	} else if *version {
		fmt.Println("urlcontextd", Version)
		os.Exit(0)
	}

	if *generateConfig {
		if _, err = os.Stat(*configPath); err == nil {
			fmt.Fprintln(os.Stderr, *configPath, "already exists, not overwriting")
			os.Exit(2)
		}
		if err = os.WriteFile(*configPath, []byte(daemon.ExampleConfig), 0o600); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to write example config:", err)
			os.Exit(2)
		}
		fmt.Println("Wrote example config to", *configPath)
		os.Exit(0)
	}

	cfg, err := daemon.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(2)
	}
	log, err := cfg.CompileLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to configure logging:", err)
		os.Exit(2)
	}
	log.Info().Str("version", Version).Msg("Initializing urlcontextd")

	d, err := daemon.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err = d.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Fatal error while running")
	}
	log.Info().Msg("Shutdown complete")
}
