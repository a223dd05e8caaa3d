package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-highlighter/internal/config"
	"github.com/a3tai/mcp-pdf-highlighter/internal/httpserver"
	"github.com/a3tai/mcp-pdf-highlighter/internal/logging"
	"github.com/a3tai/mcp-pdf-highlighter/internal/mcp"
	"github.com/a3tai/mcp-pdf-highlighter/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mcp-pdf-highlighter: %v\n", err)
		os.Exit(1)
	}
}

// run loads the configuration and serves until ctx is done. In stdio mode
// stdout belongs to the MCP protocol, so logs always go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.NewLoader("mcp-pdf-highlighter").Load(args)
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(stdout)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	logger.WithField("config", cfg.String()).Debug("starting")

	pdfService, err := newService(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.IsServerMode() {
		if !cfg.IsDebug() {
			gin.SetMode(gin.ReleaseMode)
		}
		err = httpserver.New(pdfService, logger).Run(ctx, cfg.Address())
	} else {
		var server *mcp.Server
		server, err = mcp.NewServer(cfg, pdfService, logger)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		err = server.Run(ctx)
	}
	if err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newLogger writes text logs in stdio mode and JSON logs in server mode
func newLogger(cfg *config.Config, out io.Writer) (*logrus.Logger, error) {
	format := logging.FormatText
	if cfg.IsServerMode() {
		format = logging.FormatJSON
	}
	return logging.New(cfg.LogLevel, format, out)
}

// newService wires the PDF service from the configuration
func newService(cfg *config.Config, logger *logrus.Logger) (*pdf.Service, error) {
	highlight, err := cfg.Color()
	if err != nil {
		return nil, err
	}

	svc, err := pdf.NewService(pdf.Options{
		MaxFileSize:     cfg.MaxFileSize,
		Directory:       cfg.PDFDirectory,
		OutputDirectory: cfg.OutputDirectory,
		ScanTimeout:     cfg.ScanTimeout,
		Color:           highlight,
		ReportSheet:     cfg.ReportSheet,
		Catalog:         cfg.Catalog(),
		ServerName:      cfg.ServerName,
		Version:         cfg.Version,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF service: %w", err)
	}
	return svc, nil
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Highlighter\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
