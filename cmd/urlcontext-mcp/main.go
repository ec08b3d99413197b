package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	flag "maunium.net/go/mauflag"

	"github.com/draftpad/urlcontext/pkg/contextapi"
	"github.com/draftpad/urlcontext/pkg/engine"
	"github.com/draftpad/urlcontext/pkg/mcptools"
	"github.com/draftpad/urlcontext/pkg/pasteapi"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

var (
	serverURL   = flag.MakeFull("s", "server", "Base URL of the urlcontextd server.", "http://localhost:29340").String()
	timeoutStr  = flag.MakeFull("t", "timeout", "Timeout per upstream request.", "10s").String()
	debug       = flag.MakeFull("D", "debug", "Enable debug logging.", "false").Bool()
	version     = flag.MakeFull("v", "version", "Print the version and exit.", "false").Bool()
	wantHelp, _ = flag.MakeHelpFlag()
)

func main() {
	flag.SetHelpTitles(
		"urlcontext-mcp - expose link extraction, context fetching and paste storage as MCP tools over stdio.",
		"urlcontext-mcp [-h] [-s <url>] [-t <duration>] [-D]",
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
		fmt.Println("urlcontext-mcp", Version)
		os.Exit(0)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid timeout duration:", err)
		os.Exit(1)
	}

	// Stdout carries the MCP channel, so everything human-readable goes to
	// stderr.
	log, err := buildLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to set up logging:", err)
		os.Exit(1)
	}

	baseURL := strings.TrimSuffix(*serverURL, "/")
	contextClient := contextapi.NewClient(contextapi.ClientConfig{
		BaseURL: baseURL,
		Timeout: timeout,
	})
	pasteClient := pasteapi.NewClient(pasteapi.ClientConfig{
		Endpoint: baseURL + "/v1/paste",
		Timeout:  timeout,
	})
	cache := engine.NewCache(contextClient, log)

	reg := mcptools.NewRegistry()
	reg.Register(mcptools.ExtractLinks)
	reg.Register(mcptools.NewFetchContextTool(cache))
	reg.Register(mcptools.NewStorePasteTool(pasteClient))

	server := mcptools.NewServer(Version, reg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().Str("version", Version).Str("server", *serverURL).Msg("Serving MCP tools on stdio")
	if err := mcptools.RunStdio(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("MCP server exited with error")
	}
	log.Info().Msg("Shutdown complete")
}

func buildLogger(debug bool) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	cfg := zeroconfig.Config{
		MinLevel: ptr.Ptr(level),
		Writers: []zeroconfig.WriterConfig{{
			Type:   zeroconfig.WriterTypeStderr,
			Format: zeroconfig.LogFormatPrettyColored,
		}},
	}
	log, err := cfg.Compile()
	if err != nil {
		return zerolog.Logger{}, err
	}
	return *log, nil
}
