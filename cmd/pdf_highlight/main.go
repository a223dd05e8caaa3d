package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-pdf-highlighter/internal/config"
	"github.com/a3tai/mcp-pdf-highlighter/internal/export"
	"github.com/a3tai/mcp-pdf-highlighter/internal/keywords"
	"github.com/a3tai/mcp-pdf-highlighter/internal/logging"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf"
	"github.com/a3tai/mcp-pdf-highlighter/internal/scanner"
)

var version = "dev" // This will be set by build flags

var (
	// errFailures is returned when at least one document could not be processed
	errFailures = errors.New("some documents failed")
	// errArchiveConflict is returned when two inputs would write the same archive
	errArchiveConflict = errors.New("archive name conflict")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailures) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// options are the batch flags on top of the shared configuration
type options struct {
	picked       []string
	keywordsFile string
	all          bool
	custom       []string
	out          string
}

func (o options) selection() (keywords.Selection, error) {
	custom := append([]string(nil), o.custom...)
	if o.keywordsFile != "" {
		data, err := os.ReadFile(o.keywordsFile)
		if err != nil {
			return keywords.Selection{}, fmt.Errorf("cannot read keywords file: %w", err)
		}
		custom = append(custom, keywords.Lines(string(data))...)
	}

	return keywords.Selection{
		All:    o.all,
		Picked: o.picked,
		Custom: strings.Join(custom, "\n"),
	}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader("pdf_highlight")
	fs := loader.Flags()

	var opts options
	fs.StringSliceVar(&opts.picked, "keywords", nil, "Catalog keywords to highlight (comma separated or repeated)")
	fs.StringVar(&opts.keywordsFile, "keywords-file", "", "File with one extra keyword per line")
	fs.BoolVar(&opts.all, "all", false, "Highlight every catalog keyword")
	fs.StringArrayVar(&opts.custom, "custom", nil, "Extra keyword, may be repeated")
	fs.StringVar(&opts.out, "out", "", "Directory for the archives (defaults to each PDF's directory)")
	fs.Usage = func() { printUsage(stderr, fs.FlagUsages()) }

	cfg, err := loader.Load(args)
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Fprintln(stdout, "pdf_highlight", version)
		return nil
	}
	if err != nil {
		return err
	}

	if fs.NArg() == 0 {
		printUsage(stderr, fs.FlagUsages())
		return fmt.Errorf("at least one PDF file or directory is required")
	}

	logger, err := logging.New(cfg.LogLevel, logging.FormatText, stderr)
	if err != nil {
		return err
	}

	selection, err := opts.selection()
	if err != nil {
		return err
	}

	// Reject an empty selection once instead of once per file
	if selection.IsEmpty(cfg.Catalog()) {
		return fmt.Errorf("%w: use --keywords, --all, --custom or --keywords-file", scanner.ErrEmptyKeywordSet)
	}

	files, err := collectFiles(ctx, fs.Args(), cfg.MaxFileSize)
	if err != nil {
		return err
	}

	if err := checkArchiveConflicts(files, opts.out); err != nil {
		return err
	}

	if opts.out != "" {
		if err := os.MkdirAll(opts.out, config.DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
	}

	b := &batch{
		cfg:       cfg,
		selection: selection,
		outDir:    opts.out,
		logger:    logger,
		stdout:    stdout,
	}
	return b.process(ctx, files)
}

// collectFiles expands directories into the PDFs they contain. A file named
// more than once, directly or through a directory, is kept once.
func collectFiles(ctx context.Context, args []string, maxFileSize int64) ([]string, error) {
	search := pdf.NewSearch(maxFileSize)

	var files []string
	seen := make(map[string]bool)
	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", path, err)
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, path)
		}
		return nil
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			if err := add(arg); err != nil {
				return nil, err
			}
			continue
		}

		found, err := search.FindPDFsInDirectory(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if err := add(f.Path); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// checkArchiveConflicts fails when two files would be written to the same
// archive, which happens with --out and inputs sharing a base name.
func checkArchiveConflicts(files []string, outDir string) error {
	owners := make(map[string]string, len(files))
	for _, file := range files {
		dir := outDir
		if dir == "" {
			dir = filepath.Dir(file)
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("cannot resolve output directory: %w", err)
		}

		archive := filepath.Join(dir, export.Names(filepath.Base(file)).Archive)
		if other, ok := owners[archive]; ok {
			return fmt.Errorf("%w: %s and %s would both write %s", errArchiveConflict, other, file, archive)
		}
		owners[archive] = file
	}
	return nil
}

type batch struct {
	cfg       *config.Config
	selection keywords.Selection
	outDir    string
	logger    *logrus.Logger

	mu     sync.Mutex
	stdout io.Writer
}

// process highlights files concurrently, each as an independent request.
// One failing file does not stop the others.
func (b *batch) process(ctx context.Context, files []string) error {
	var g errgroup.Group
	g.SetLimit(b.cfg.Workers)

	var failed int
	var failedMu sync.Mutex

	for _, file := range files {
		g.Go(func() error {
			if err := b.processFile(ctx, file); err != nil {
				b.logger.WithError(err).WithField("file", file).Error("highlight failed")
				b.printf("FAILED  %s: %v\n", file, err)
				failedMu.Lock()
				failed++
				failedMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if failed > 0 {
		b.printf("%d of %d documents failed\n", failed, len(files))
		return errFailures
	}
	return nil
}

func (b *batch) processFile(ctx context.Context, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Each file gets its own service rooted at the file's directory
	dir := filepath.Dir(file)
	outDir := b.outDir
	if outDir == "" {
		outDir = dir
	}

	svc, err := b.newService(dir, outDir)
	if err != nil {
		return err
	}

	result, err := svc.HighlightFile(ctx, pdf.HighlightFileRequest{
		Path:      filepath.Base(file),
		Selection: b.selection,
	})
	if errors.Is(err, scanner.ErrNothingFound) {
		b.printf("NONE    %s: No keywords found in the PDF.\n", file)
		return nil
	}
	if err != nil {
		return err
	}

	b.printf("OK      %s -> %s (%d of %d keywords, %d highlights)\n",
		file, result.ArchivePath, result.KeywordsFound, result.KeywordsUsed, result.Highlights)
	return nil
}

func (b *batch) newService(dir, outDir string) (*pdf.Service, error) {
	highlight, err := b.cfg.Color()
	if err != nil {
		return nil, err
	}

	return pdf.NewService(pdf.Options{
		MaxFileSize:     b.cfg.MaxFileSize,
		Directory:       dir,
		OutputDirectory: outDir,
		ScanTimeout:     b.cfg.ScanTimeout,
		Color:           highlight,
		ReportSheet:     b.cfg.ReportSheet,
		Catalog:         b.cfg.Catalog(),
		ServerName:      b.cfg.ServerName,
		Version:         b.cfg.Version,
		Logger:          b.logger,
	})
}

func (b *batch) printf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.stdout, format, args...)
}

func printUsage(w io.Writer, flags string) {
	fmt.Fprintln(w, "pdf_highlight - highlight planning keywords in PDF files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_highlight [options] <file.pdf|directory>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Each PDF yields highlighted_and_report_<name>.zip holding the highlighted")
	fmt.Fprintln(w, "PDF and an Excel report of the pages each keyword was found on.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprint(w, flags)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_highlight --keywords \"Master Plan,Rezoning\" agenda.pdf")
	fmt.Fprintln(w, "  pdf_highlight --all --workers 8 --out ./reports ./minutes/")
	fmt.Fprintln(w, "  pdf_highlight --keywords-file terms.txt --custom \"Heritage Overlay\" plan.pdf")
}
