package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ning0612/Cloudbrowse/internal/config"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/metrics"
	"github.com/Ning0612/Cloudbrowse/internal/progress"
	"github.com/Ning0612/Cloudbrowse/internal/report"
	"github.com/Ning0612/Cloudbrowse/internal/service"
)

// globalFlags holds the persistent flags shared by every command
type globalFlags struct {
	configPath  string
	logLevel    string
	metricsAddr string
	quiet       bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:          "cloudbrowse",
		Short:        "Browse remote file storage from the terminal",
		Long:         "cloudbrowse lists, groups and manages files on WebDAV, Google Drive, S3 and local remotes.",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (default: search ./config.yaml, ~/.config/cloudbrowse)")
	pf.StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.StringVar(&g.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "suppress console logging and progress bars")

	root.AddCommand(
		newLsCmd(g),
		newMkdirCmd(g),
		newRmCmd(g),
		newMvCmd(g),
		newRenameCmd(g),
		newGetCmd(g),
		newPutCmd(g),
		newThumbsCmd(g),
		newBrowseCmd(g),
		newCacheCmd(g),
		newAuthCmd(g),
	)

	return root
}

// loadConfig reads the config file and starts logging
func (g *globalFlags) loadConfig() (*config.Config, *viper.Viper, error) {
	v := config.NewViper(g.configPath)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: create config.yaml or pass --config", domain.ErrConfigNotFound)
		}
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg, err := config.Decode(v)
	if err != nil {
		return nil, nil, err
	}

	lc := cfg.LoggerConfig()
	if g.logLevel != "" {
		lc.Level = logger.ParseLevel(g.logLevel)
	}
	lc.Quiet = g.quiet
	if err := logger.Init(lc); err != nil {
		return nil, nil, err
	}

	addr := g.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		serveMetrics(addr)
	}
	return cfg, v, nil
}

func serveMetrics(addr string) {
	log := logger.Component("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
}

// app bundles what a command needs to drive one session
type app struct {
	svc       *service.BrowseService
	collector *report.Collector
}

type openOptions struct {
	download string
	sort     string
	progress bool
}

// open loads the config and connects to the remote. Thumbnail prefetch is
// disabled unless the command asks for a download policy.
func (g *globalFlags) open(ctx context.Context, o openOptions) (*app, error) {
	cfg, v, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	collector := &report.Collector{}
	opts := []service.BrowseOption{
		service.WithReporter(report.Multi{report.NewLogReporter(logger.Component("report")), collector}),
	}
	if o.download == "" {
		cfg.Thumbnails.Download = string(domain.DownloadNever)
	} else if o.download == "config" {
		opts = append(opts, service.WithViper(v))
	} else {
		cfg.Thumbnails.Download = o.download
	}
	if o.sort != "" {
		opts = append(opts, service.WithSortOverride(o.sort))
	}
	if o.progress && !g.quiet {
		opts = append(opts, service.WithProgress(progress.NewBarReporter(os.Stderr, 30)))
	}

	svc, err := service.NewBrowseService(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &app{svc: svc, collector: collector}, nil
}

func (a *app) Close() error {
	return a.svc.Close()
}

// failed returns the reported remote errors, if any
func (a *app) failed() error {
	return a.collector.Err()
}

// splitPath returns the directory names from the root to p
func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		default:
			parts = append(parts, part)
		}
	}
	return parts
}

func joinParts(parts []string) string {
	return strings.Join(parts, "/")
}

// splitParent splits p into its parent directory and last element
func splitParent(p string) (string, string) {
	parts := splitPath(p)
	if len(parts) == 0 {
		return "/", ""
	}
	return "/" + joinParts(parts[:len(parts)-1]), parts[len(parts)-1]
}

// changeDir lists the root and walks the session down to dir
func (a *app) changeDir(ctx context.Context, dir string) error {
	sess := a.svc.Session()
	if err := sess.StartListing(ctx); err != nil {
		return err
	}
	if err := a.failed(); err != nil {
		return err
	}
	for _, name := range splitPath(dir) {
		e := sess.Find(name)
		if e == nil {
			return fmt.Errorf("%w: %s in %s", domain.ErrNotFound, name, sess.CurrentPath())
		}
		if err := sess.Open(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", e.Path, err)
		}
		if err := a.failed(); err != nil {
			return err
		}
	}
	return nil
}

// find walks to the parent of p and returns its entry
func (a *app) find(ctx context.Context, p string) (*domain.Entry, error) {
	parent, name := splitParent(p)
	if name == "" {
		return nil, fmt.Errorf("%w: the root cannot be used here", domain.ErrBadRequest)
	}
	if err := a.changeDir(ctx, parent); err != nil {
		return nil, err
	}
	e := a.svc.Session().Find(name)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, p)
	}
	return e, nil
}
