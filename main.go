package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kierank/feedor/config"
	"github.com/kierank/feedor/fetch"
	"github.com/kierank/feedor/poll"
	"github.com/kierank/feedor/render"
	"github.com/kierank/feedor/store"
	"github.com/kierank/feedor/web"
)

var (
	version = "dev"
	logger  *log.Logger
)

func main() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})

	var (
		feedsPath     string
		adaptersPath  string
		serve         bool
		updateFirst   bool
		staticOut     string
		limit         int
		pollSeconds   int
		bindAddr      string
		noETag        bool
	)

	rootCmd := &cobra.Command{
		Use:     "feedor",
		Short:   "Self-hosted feed aggregator",
		Long:    "feedor polls a list of feeds, normalizes their entries into a single store, and serves them back as RSS, Atom, and searchable HTML.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := runOptions{
				feedsPath:    feedsPath,
				adaptersPath: adaptersPath,
				serve:        serve,
				updateFirst:  updateFirst,
				staticOut:    staticOut,
				limit:        limit,
				pollSeconds:  pollSeconds,
				bindAddr:     bindAddr,
				noETag:       noETag,
			}
			return run(cmd.Context(), opts)
		},
	}

	rootCmd.Flags().StringVar(&feedsPath, "feeds", "feeds.txt", "path to the feed list")
	rootCmd.Flags().StringVar(&adaptersPath, "adapters", "adapters.yaml", "path to the optional custom adapter registry")
	rootCmd.Flags().BoolVarP(&serve, "serve", "s", false, "start the HTTP server")
	rootCmd.Flags().BoolVarP(&updateFirst, "update", "u", false, "run one update before serving, then periodically")
	rootCmd.Flags().StringVarP(&staticOut, "file", "f", "", "write a static render to this path instead of serving (.atom, .html, else RSS)")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 50, "page limit of the static render written by --file (the HTTP server always defaults to 50, overridable per request with limit=N)")
	rootCmd.Flags().IntVarP(&pollSeconds, "interval", "t", 0, "poll period in seconds (overrides config/env default)")
	rootCmd.Flags().StringVarP(&bindAddr, "bind", "p", "", "bind address HOST:PORT (overrides config/env default)")
	rootCmd.Flags().BoolVar(&noETag, "no-etag", false, "disable conditional GET")

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}

type runOptions struct {
	feedsPath    string
	adaptersPath string
	serve        bool
	updateFirst  bool
	staticOut    string
	limit        int
	pollSeconds  int
	bindAddr     string
	noETag       bool
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.bindAddr != "" {
		cfg.BindAddr = opts.bindAddr
	}
	if opts.pollSeconds > 0 {
		cfg.PollInterval = opts.pollSeconds
	}
	if opts.noETag {
		cfg.NoETag = true
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reg, err := config.LoadAdapterRegistry(opts.adaptersPath)
	if err != nil {
		return fmt.Errorf("load adapter registry: %w", err)
	}

	feedsText, err := os.ReadFile(opts.feedsPath)
	if err != nil {
		return fmt.Errorf("read feed list %s: %w", opts.feedsPath, err)
	}
	sources, err := config.ParseFeedList(string(feedsText), reg)
	if err != nil {
		return fmt.Errorf("parse feed list: %w", err)
	}

	fetcher := fetch.New(db)
	fetcher.NoETag = cfg.NoETag

	poller := &poll.Poller{
		Sources: sources,
		Fetcher: fetcher,
		Store:   db,
		Logger:  logger,
	}

	if opts.staticOut != "" {
		return writeStatic(ctx, db, poller, opts.staticOut, opts.limit, opts.updateFirst)
	}

	if opts.updateFirst {
		logger.Info("running initial poll", "sources", len(sources))
		if err := poller.PollAll(ctx); err != nil {
			return fmt.Errorf("initial poll: %w", err)
		}
	}

	if !opts.serve {
		return nil
	}

	logger.Info("starting feedor",
		"bind_addr", cfg.BindAddr,
		"db_path", cfg.DBPath,
		"poll_interval_s", cfg.PollInterval,
		"sources", len(sources),
	)

	webServer := web.NewServer(db, cfg.BindAddr, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return webServer.ListenAndServe(ctx)
	})

	g.Go(func() error {
		poller.Run(ctx, time.Duration(cfg.PollInterval)*time.Second)
		return nil
	})

	return g.Wait()
}

// writeStatic writes a single rendered page to path, choosing RSS/Atom/HTML
// by extension per the --file flag's contract. It renders whatever is
// already in the store; a poll only runs first when -u/--update was also
// passed, so repeated static renders stay cheap unless the caller asks for
// a refresh (matching the original Python's independent -f/-u flags).
func writeStatic(ctx context.Context, db *store.DB, poller *poll.Poller, path string, limit int, updateFirst bool) error {
	if updateFirst {
		logger.Info("running poll before static render", "sources", len(poller.Sources))
		if err := poller.PollAll(ctx); err != nil {
			return fmt.Errorf("poll before static render: %w", err)
		}
	}

	entries, next, err := db.List(ctx, limit, nil)
	if err != nil {
		return fmt.Errorf("list entries for static render: %w", err)
	}
	page := render.Page{Title: "feedor", Entries: entries}
	if next != nil {
		page.Next = fmt.Sprintf("%d:%d", next.Time, next.RowID)
	}

	var out []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".atom":
		out, err = render.Atom(page)
	case ".html":
		out, err = render.HTML(page)
	default:
		out, err = render.RSS(page)
	}
	if err != nil {
		return fmt.Errorf("render static output: %w", err)
	}

	return os.WriteFile(path, out, 0644)
}
