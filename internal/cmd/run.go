package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/bgpscope/internal/browser"
	"github.com/masahif/bgpscope/internal/config"
	"github.com/masahif/bgpscope/internal/crawler"
	"github.com/masahif/bgpscope/internal/logging"
	"github.com/masahif/bgpscope/internal/report"
	"github.com/masahif/bgpscope/internal/scope"
	"github.com/masahif/bgpscope/internal/storage"
)

// newSession opens the page-fetching session; replaced in tests
var newSession = browser.New

const fatalGuidance = "Oh no! An issue occurred. Please submit an issue on the Github repository with the debug.png and debug.html files."

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if showConfig, _ := cmd.Flags().GetBool("show-config"); showConfig {
		return showCurrentConfig(cmd.OutOrStdout(), cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	closer, err := logging.SetDefault(logging.Config{
		Level:      logging.ParseLevel(cfg.Log.Level),
		Format:     cfg.Log.Format,
		FilePath:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return lookup(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// lookup runs search, scope selection, crawl and output for one company
func lookup(ctx context.Context, cfg *config.CrawlConfig, in io.Reader, out, errOut io.Writer) error {
	slog.Info("Starting lookup",
		"company", cfg.Company,
		"base_url", cfg.BaseURL,
		"browser", cfg.Browser,
		"request_delay", cfg.RequestDelay,
		"database", cfg.DatabasePath)

	session, err := newSession(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("Failed to close browser session", "error", err)
		}
	}()

	searcher := scope.NewSearcher(session, cfg)
	if err := searcher.WaitValidated(ctx); err != nil {
		return err
	}

	candidates, err := searcher.Search(ctx, cfg.Company)
	if errors.Is(err, scope.ErrNoResults) {
		fmt.Fprintln(out, "No results returned.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	fmt.Fprintln(out, "Results found!")

	seeds, err := scope.NewSelector(in, out, cfg.AssumeYes).Select(cfg.BaseURL, candidates)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		fmt.Fprintln(out, "Nothing selected, nothing to parse.")
		return nil
	}

	c, err := crawler.NewCrawler(cfg, session)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	if cfg.RespectRobots {
		applyRobots(ctx, cfg, c.RateLimiter(), seeds)
	}
	diagnostics := report.NewDiagnosticsWriter(cfg.DiagnosticsDir)
	c.SetDiagnostics(diagnostics)

	var history *storage.SQLiteStorage
	if cfg.DatabasePath != "" {
		history, err = openHistory(cfg, seeds)
		if err != nil {
			return err
		}
		defer func() { _ = history.Close() }()
		c.SetVisitRecorder(history)
	}

	fmt.Fprintln(out, "Parsing results...")
	started := time.Now()
	outcome := c.Crawl(ctx, seeds)
	finished := time.Now()

	// close the run before any output can fail
	if history != nil {
		if err := history.FinishRun(outcome, finished); err != nil {
			slog.Error("Failed to save run history", "error", err)
		}
	}

	if err := report.NewTextWriter(out).Write(cfg.Company, outcome.Results); err != nil {
		return err
	}
	if err := writeOutputs(cfg, seeds, outcome, started, finished.Sub(started)); err != nil {
		return err
	}

	switch outcome.Reason {
	case crawler.RateLimited:
		fmt.Fprintln(errOut, "Query limit reached. Results above are partial.")
	case crawler.Cancelled:
		fmt.Fprintln(errOut, "Interrupted. Results above are partial.")
	case crawler.Fatal:
		fmt.Fprintln(errOut, fatalGuidance)
		if outcome.DiagnosticsSaved {
			fmt.Fprintf(errOut, "Diagnostics written to %s\n", cfg.DiagnosticsDir)
		}
		return fmt.Errorf("crawl stopped: %w", outcome.Cause)
	}
	return nil
}

// applyRobots raises the delay for the service host to its robots.txt
// Crawl-delay and warns about seeds the file disallows.
func applyRobots(ctx context.Context, cfg *config.CrawlConfig, limiter *crawler.RateLimiter, seeds []string) {
	client := browser.NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)
	defer client.Close()

	rules, err := browser.FetchRobotRules(ctx, client, cfg.BaseURL, cfg.UserAgent)
	if err != nil {
		slog.Warn("Failed to fetch robots.txt", "error", err)
		return
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return
	}
	if rules.CrawlDelay > 0 {
		limiter.SetDomainDelay(u.Host, rules.CrawlDelay)
		slog.Info("Applied robots.txt crawl delay", "host", u.Host, "delay", limiter.Delay(u.Host))
	}

	for _, seed := range seeds {
		if su, err := url.Parse(seed); err == nil && !rules.Allows(su.Path) {
			slog.Warn("robots.txt disallows seed", "url", seed)
		}
	}
}

func openHistory(cfg *config.CrawlConfig, seeds []string) (*storage.SQLiteStorage, error) {
	history, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history %s: %w", cfg.DatabasePath, err)
	}
	runID, err := history.BeginRun(cfg.Company, seeds, time.Now())
	if err != nil {
		_ = history.Close()
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	slog.Info("Recording run history", "database", cfg.DatabasePath, "run_id", runID)
	return history, nil
}

// writeOutputs writes the result files and the Markdown report when configured
func writeOutputs(cfg *config.CrawlConfig, seeds []string, outcome *crawler.Outcome, started time.Time, duration time.Duration) error {
	if cfg.OutputPrefix != "" {
		files, err := report.WriteResultFiles(cfg.OutputPrefix, outcome.Results)
		if err != nil {
			return err
		}
		slog.Info("Wrote result files", "address_ranges", files.AddressRanges, "domain_names", files.DomainNames)
	}

	if cfg.ReportPath != "" {
		f, err := os.Create(cfg.ReportPath)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer func() { _ = f.Close() }()

		_, err = report.NewMarkdownWriter(f).Write(&report.Run{
			Company:   cfg.Company,
			Seeds:     seeds,
			StartedAt: started,
			Duration:  duration,
			Outcome:   outcome,
		})
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		slog.Info("Wrote report", "path", cfg.ReportPath)
	}
	return nil
}
