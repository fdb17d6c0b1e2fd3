package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pdf-translator/internal/config"
	"pdf-translator/internal/logger"
)

// options holds the parsed command line flags
type options struct {
	pdf    string
	output string
	config string
	list   bool
	limit  int
	log    string
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("pdf-translator", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = printHelp

	opts := &options{}
	fs.StringVar(&opts.pdf, "pdf", "", "PDF file path to translate")
	fs.StringVar(&opts.output, "output", "", "Directory to copy the translated PDF into")
	fs.StringVar(&opts.config, "config", "", "Config file path (default ~/.config/pdf-translator/pdf-translator-config.json)")
	fs.BoolVar(&opts.list, "list", false, "List recently translated documents")
	fs.IntVar(&opts.limit, "limit", 0, "Number of documents to list (0 = configured default)")
	fs.StringVar(&opts.log, "log", "", "Log file path (default pdf-translator.log)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func printHelp() {
	fmt.Println("PDF Translator - translates the text of PDF documents and renders it as a new PDF")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pdf-translator [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -pdf <PATH>        PDF file to translate")
	fmt.Println("  -output <DIR>      copy the translated PDF into this directory")
	fmt.Println("  -config <PATH>     config file path")
	fmt.Println("  -list              list recently translated documents")
	fmt.Println("  -limit <N>         number of documents to list")
	fmt.Println("  -log <PATH>        log file path (default pdf-translator.log)")
	fmt.Println("  -h, -help          show this help")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  OPENAI_API_KEY     API key; without it translations are mocked")
	fmt.Println("  OPENAI_BASE_URL    OpenAI-compatible endpoint")
	fmt.Println("  OPENAI_MODEL       model name (default gpt-4)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  pdf-translator -pdf /path/to/paper.pdf")
	fmt.Println("  pdf-translator -pdf paper.pdf -output ./translated")
	fmt.Println("  pdf-translator -list -limit 10")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command and returns the process exit code. Deferred
// cleanup runs before the caller exits.
func run(args []string) int {
	opts, err := parseFlags(args)
	if err == flag.ErrHelp {
		printHelp()
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	if opts.pdf == "" && !opts.list {
		printHelp()
		return 2
	}

	logCfg := logger.DefaultConfig()
	if opts.log != "" {
		logCfg.LogFilePath = opts.log
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	config.LoadDotEnv()

	app, err := NewAppWithConfig(opts.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.startup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.shutdown()

	if level := app.GetConfig().GetConfig().LogLevel; level != "" {
		logger.GetLogger().SetLevel(logger.ParseLevel(level))
	}

	if opts.list {
		if err := runList(app, opts.limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if !runTranslate(app, opts.pdf, opts.output) {
		return 1
	}
	return 0
}

// runTranslate translates one file and prints the outcome
func runTranslate(app *App, pdfPath, output string) bool {
	fmt.Println("=== PDF translation ===")
	fmt.Printf("Input: %s\n", pdfPath)

	out, err := app.TranslatePDF(pdfPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: translation failed: %v\n", err)
		return false
	}

	fmt.Println()
	fmt.Print(describeOutcome(out))

	if output != "" {
		dest, err := app.ExportTranslated(out.ID, pdfPath, output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return false
		}
		fmt.Printf("Saved: %s\n", dest)
	}
	return true
}

func runList(app *App, limit int) error {
	docs, err := app.ListRecent(limit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No translated documents yet.")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s  %-9s  %s  %s\n", d.CreatedAt.Format("2006-01-02 15:04"), d.Status, d.ID, d.FileName)
		if d.ErrorMessage != "" {
			fmt.Printf("    error: %s\n", d.ErrorMessage)
		}
	}
	return nil
}
