package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/air-gapped/enml/internal/config"
	"github.com/air-gapped/enml/internal/fetch"
	"github.com/air-gapped/enml/internal/logging"
	"github.com/air-gapped/enml/internal/note"
	"github.com/air-gapped/enml/internal/server"
)

// Set by linker via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Check for --version before full flag parsing
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Printf("enml %s (%s) built %s\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "enml: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if cfg.Input != "" {
		// stdout may carry the note, so logs go to stderr.
		logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		if err := convert(ctx, cfg, os.Stdout); err != nil {
			slog.Error("convert failed", "input", cfg.Input, "error", err)
			os.Exit(1)
		}
		return
	}

	logger := logging.Setup(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if err := serve(ctx, cfg, logger); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.TLSSkipVerify {
		slog.Warn("TLS certificate verification disabled for source fetches")
	}
	if cfg.AllowPrivate {
		slog.Warn("private address guard disabled for source fetches")
	}

	slog.Info("config loaded",
		"listen", cfg.Listen,
		"cache_ttl", cfg.CacheTTL.String(),
		"cache_max_size", cfg.CacheMaxSize,
		"fetch_timeout", cfg.FetchTimeout.String(),
		"max_file_size", cfg.MaxFileSize,
		"proxy", cfg.Proxy.Host != "",
		"allowlist", cfg.AllowedUpstreams != "",
	)

	client := fetch.NewClient(cfg.FetchOptions())
	defer client.CloseIdleConnections()

	srv := server.New(cfg, version, client, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "listen", cfg.Listen, "version", version)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// convert builds one note from cfg.Input and writes its ENML to cfg.Output,
// or to stdout when no output is named.
func convert(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	exp, err := loadInput(ctx, cfg)
	if err != nil {
		return err
	}

	attachments := make([]note.Export, 0, len(cfg.Attach))
	for _, path := range cfg.Attach {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		attachments = append(attachments, note.Export{Filename: filepath.Base(path), Data: data})
	}

	n, err := note.NewBuilder("").Build(exp, attachments, note.Options{
		Title:    cfg.NoteTitle,
		Tags:     note.ParseTags(cfg.NoteTags),
		Notebook: cfg.Notebook,
	})
	if err != nil {
		return fmt.Errorf("build note: %w", err)
	}

	slog.Info("note built",
		"title", n.Title,
		"format", string(n.Format),
		"tags", strings.Join(n.Tags, ","),
		"resources", len(n.Resources),
		"bytes", len(n.Content),
	)

	if cfg.Output == "" {
		_, err = io.WriteString(stdout, n.Content)
		return err
	}
	if err := os.WriteFile(cfg.Output, []byte(n.Content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func loadInput(ctx context.Context, cfg *config.Config) (note.Export, error) {
	if strings.HasPrefix(cfg.Input, "http://") || strings.HasPrefix(cfg.Input, "https://") {
		client := fetch.NewClient(cfg.FetchOptions())
		defer client.CloseIdleConnections()

		result, err := client.Fetch(ctx, cfg.Input)
		if err != nil {
			return note.Export{}, fmt.Errorf("fetch input: %w", err)
		}
		return note.Export{Filename: result.Filename, Data: result.Body, SourceURL: cfg.Input}, nil
	}

	info, err := os.Stat(cfg.Input)
	if err != nil {
		return note.Export{}, fmt.Errorf("read input: %w", err)
	}
	if info.Size() > cfg.MaxFileSize {
		return note.Export{}, fmt.Errorf("read input: %w: %d bytes (limit %d)", fetch.ErrTooLarge, info.Size(), cfg.MaxFileSize)
	}
	data, err := os.ReadFile(cfg.Input)
	if err != nil {
		return note.Export{}, fmt.Errorf("read input: %w", err)
	}
	return note.Export{Filename: filepath.Base(cfg.Input), Data: data}, nil
}
