package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/niklasfasching/qsa/finder"
	"github.com/niklasfasching/qsa/soup"
	"github.com/niklasfasching/qsa/store"
	"github.com/niklasfasching/qsa/util"
)

type config struct {
	Selector string `yaml:"selector"`
	Mode     string `yaml:"mode"`
	Node     string `yaml:"node"`
	Noexcept bool   `yaml:"noexcept"`
	Warn     bool   `yaml:"warn"`
	DB       string `yaml:"db"`
	Cache    string `yaml:"cache"`
	Retries  int    `yaml:"retries"`
	Jobs     int    `yaml:"jobs"`
	LogLevel string `yaml:"log_level"`
}

type app struct {
	cfg    config
	out    io.Writer
	log    *zap.Logger
	client *http.Client
	db     *store.DB
	mu     sync.Mutex
}

var defaults = config{Mode: "all", Node: ":root", Retries: 2, Jobs: 4, LogLevel: "info"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdout).Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "qsa: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.Command {
	a := &app{cfg: defaults, out: out, log: zap.NewNop()}
	queryFlags := []cli.Flag{
		&cli.BoolFlag{Name: "noexcept", Usage: "treat invalid and unsupported selectors as matching nothing"},
		&cli.BoolFlag{Name: "warn", Usage: "log unsupported pseudo-classes and pseudo-elements instead of failing"},
		&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "number of documents queried concurrently"},
		&cli.IntFlag{Name: "retries", Usage: "number of retries for failed downloads"},
		&cli.StringFlag{Name: "cache", Usage: "cache downloaded documents in `DIR`"},
	}
	return &cli.Command{
		Name:            "qsa",
		Usage:           "query html documents with css selectors",
		HideHelpCommand: true,
		Before:          a.before,
		After:           a.after,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "log-level", Usage: "log `LEVEL` (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "prints the elements of each SOURCE matched by the selector",
				ArgsUsage: "SOURCE...",
				Action:    a.query,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "selector", Aliases: []string{"s"}, Usage: "css `SELECTOR`"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "one of all, first, matches, closest"},
					&cli.StringFlag{Name: "node", Usage: "`SELECTOR` of the node tested by matches and closest"},
					&cli.StringFlag{Name: "db", Usage: "store results in sqlite database `FILE`"},
				}, queryFlags...),
			},
			{
				Name:      "coverage",
				Usage:     "prints the number of elements matched by each selector of STYLESHEET",
				ArgsUsage: "STYLESHEET SOURCE...",
				Action:    a.coverage,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "unused", Usage: "only print selectors that match nothing"},
				}, queryFlags...),
			},
			{
				Name:      "runs",
				Usage:     "prints the results of SELECTOR stored by query --db",
				ArgsUsage: "SELECTOR",
				Action:    a.runs,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "db", Usage: "read results from sqlite database `FILE`"},
					&cli.BoolFlag{Name: "tags", Usage: "print the number of matches per tag name"},
					&cli.BoolFlag{Name: "matches", Usage: "print the stored matches"},
				},
			},
		},
	}
}

// before resolves the configuration: defaults, config file, environment
// (QSA_<FIELD>) and finally flags.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := util.LoadConfigFile(cmd.String("config"), &a.cfg); err != nil {
		return ctx, fmt.Errorf("unable to load configuration: %w", err)
	}
	if err := util.LoadConfig("QSA_", &a.cfg); err != nil {
		return ctx, fmt.Errorf("unable to load configuration: %w", err)
	}
	if cmd.IsSet("log-level") {
		a.cfg.LogLevel = cmd.String("log-level")
	}
	log, err := util.NewLogger(a.cfg.LogLevel)
	if err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	a.log = log
	a.log.Debug("program started", zap.Strings("args", os.Args))
	return util.WithLogger(ctx, a.log), nil
}

func (a *app) after(ctx context.Context, cmd *cli.Command) error {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("unable to close database", zap.Error(err))
		}
	}
	a.log.Sync()
	return nil
}

func (a *app) applyFlags(cmd *cli.Command) {
	for name, v := range map[string]*string{"selector": &a.cfg.Selector, "mode": &a.cfg.Mode, "node": &a.cfg.Node, "db": &a.cfg.DB, "cache": &a.cfg.Cache} {
		if cmd.IsSet(name) {
			*v = cmd.String(name)
		}
	}
	for name, v := range map[string]*bool{"noexcept": &a.cfg.Noexcept, "warn": &a.cfg.Warn} {
		if cmd.IsSet(name) {
			*v = cmd.Bool(name)
		}
	}
	for name, v := range map[string]*int{"jobs": &a.cfg.Jobs, "retries": &a.cfg.Retries} {
		if cmd.IsSet(name) {
			*v = cmd.Int(name)
		}
	}
	if a.cfg.Jobs < 1 {
		a.cfg.Jobs = 1
	}
	t := soup.Transport{Log: a.log, UserAgent: "qsa"}
	if a.cfg.Cache != "" {
		t.Cache = &soup.FileCache{Dir: a.cfg.Cache}
	}
	a.client = t.Client()
}

func (a *app) queryOptions() []finder.QueryOption {
	opts := []finder.QueryOption{}
	if a.cfg.Noexcept {
		opts = append(opts, finder.Noexcept())
	}
	if a.cfg.Warn {
		opts = append(opts, finder.Warn())
	}
	return opts
}

// load parses the file or http(s) url source.
func (a *app) load(ctx context.Context, source string) (*soup.Node, error) {
	opts := []finder.Option{finder.WithLogger(a.log)}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return soup.Parse(f, opts...)
	}
	return util.RetryContext(ctx, func(ctx context.Context) (*soup.Node, error) {
		return soup.LoadContext(ctx, a.client, source, opts...)
	}, a.cfg.Retries, time.Second)
}
