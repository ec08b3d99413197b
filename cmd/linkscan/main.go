package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	flag "maunium.net/go/mauflag"

	"github.com/draftpad/urlcontext/pkg/contextapi"
	"github.com/draftpad/urlcontext/pkg/engine"
	"github.com/draftpad/urlcontext/pkg/linkscan"
	"github.com/draftpad/urlcontext/pkg/textdoc"
)

var (
	serverURL   = flag.MakeFull("s", "server", "Base URL of the urlcontextd server.", "http://localhost:29340").String()
	debounceStr = flag.MakeFull("d", "debounce", "Debounce delay before fetching, e.g. 50ms.", "500ms").String()
	timeoutStr  = flag.MakeFull("t", "timeout", "Timeout per context fetch.", "10s").String()
	expand      = flag.MakeFull("x", "expand", "Expand resolved links inline and print the document.", "false").Bool()
	debug       = flag.MakeFull("D", "debug", "Enable debug logging.", "false").Bool()
	wantHelp, _ = flag.MakeHelpFlag()
)

// Safety valve for expansion loops where fetched content contains more
// already-resolved links.
const maxExpansions = 1000

func main() {
	flag.SetHelpTitles(
		"linkscan - scan files for URLs and fetch their context.",
		"linkscan [-h] [-s <url>] [-d <duration>] [-t <duration>] [-x] <file> [files...]",
	)
	err := flag.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.PrintHelp()
		os.Exit(1)
	} else if *wantHelp {
		flag.PrintHelp()
		os.Exit(0)
	}
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No input files given")
		flag.PrintHelp()
		os.Exit(1)
	}

	debounce, err := time.ParseDuration(*debounceStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid debounce duration:", err)
		os.Exit(1)
	}
	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid timeout duration:", err)
		os.Exit(1)
	}

	log, err := buildLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to set up logging:", err)
		os.Exit(1)
	}

	client := contextapi.NewClient(contextapi.ClientConfig{
		BaseURL: *serverURL,
		Timeout: timeout,
	})

	exitCode := 0
	for _, path := range files {
		if err := processFile(path, client, debounce, log); err != nil {
			log.Err(err).Str("file", path).Msg("Failed to process file")
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// buildLogger compiles a stderr console logger; stdout is reserved for the
// report output.
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

func processFile(path string, client *contextapi.Client, debounce time.Duration, log zerolog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc := textdoc.New(string(data))
	eng := engine.New(doc, client, engine.Config{DebounceDelay: debounce}, log)
	defer eng.Close()

	// One-shot run: fire the scheduled batch now instead of waiting out the
	// debounce window. Flush returns once every fetch has settled.
	eng.Flush()

	printReport(path, doc, eng)
	if *expand {
		expandAll(eng, log)
		fmt.Print(doc.Text())
	}
	return nil
}

func printReport(path string, doc *textdoc.Buffer, eng *engine.Engine) {
	ext := eng.Snapshot().Extraction()
	if ext.Empty() {
		fmt.Printf("%s: no links\n", path)
		return
	}

	resolved, failed := 0, 0
	for _, url := range ext.URLs() {
		if entry, ok := eng.Cache().Lookup(url); ok {
			if entry.Failed() {
				failed++
			} else {
				resolved++
			}
		}
	}
	fmt.Printf("%s: %d links (%d urls), %d resolved, %d failed\n", path, ext.Len(), len(ext.URLs()), resolved, failed)

	hintByRange := make(map[linkscan.Range]string)
	for _, hint := range engine.NewHintProvider(eng).InlineHints(0, doc.LineCount()-1) {
		hintByRange[hint.Range] = hint.Label
	}

	hover := engine.NewHoverProvider(eng)
	for _, occ := range ext.All() {
		// 1-based positions for humans, matching compiler output.
		line := fmt.Sprintf("  %d:%d %s", occ.Line+1, occ.Range.Start.Col+1, occ.URL)
		if label, ok := hintByRange[occ.Range]; ok {
			line += "  " + label
		}
		fmt.Println(line)
		if card := hover.Hover(occ.Range.Start); card != nil {
			fmt.Printf("       %s\n", strings.ReplaceAll(card.Render(), "\n", "\n       "))
		}
	}
}

// expandAll splices cached content into the document until no expandable
// occurrence remains. Every expansion shifts positions and may reveal new
// links inside the spliced content, so the extraction is re-taken and newly
// scheduled fetches are flushed after each one.
func expandAll(eng *engine.Engine, log zerolog.Logger) {
	for expansions := 0; expansions < maxExpansions; expansions++ {
		occ, ok := nextExpandable(eng)
		if !ok {
			return
		}
		if err := eng.Expand(context.Background(), occ.URL, occ.Range); err != nil {
			log.Err(err).Str("url", occ.URL).Msg("Expansion failed")
			return
		}
		eng.Flush()
	}
	log.Warn().Int("limit", maxExpansions).Msg("Expansion limit reached, stopping")
}

// nextExpandable returns the first occurrence whose URL has settled with
// textual content. Failures and content-free contexts are skipped rather than
// retried; their entries are terminal.
func nextExpandable(eng *engine.Engine) (linkscan.Occurrence, bool) {
	for _, occ := range eng.Snapshot().Extraction().All() {
		entry, ok := eng.Cache().Lookup(occ.URL)
		if ok && !entry.Failed() && entry.Context.Content != "" {
			return occ, true
		}
	}
	return linkscan.Occurrence{}, false
}
