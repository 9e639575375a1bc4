package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/weather-bot/meow/internal/assets"
	"github.com/weather-bot/meow/internal/config"
	"github.com/weather-bot/meow/internal/fit"
	"github.com/weather-bot/meow/internal/imageio"
	"github.com/weather-bot/meow/internal/layout"
	"github.com/weather-bot/meow/internal/logger"
	"github.com/weather-bot/meow/internal/output"
	"github.com/weather-bot/meow/internal/server"
	"github.com/weather-bot/meow/internal/watch"
	"github.com/weather-bot/meow/internal/weather"
)

var (
	Version   = "unknown"
	BuildTime = "unknown"
)

const (
	RepositoryURL    = "https://github.com/weather-bot/meow"
	WatchDebounce    = 200 * time.Millisecond
	ShutdownTimeout  = 5 * time.Second
	defaultConfigDir = "./config"
)

const usage = `Usage:
  meow -image <path|url> -info <json> [-mode corner-mode] [-output out.jpg]
  meow serve [-addr :8080]
  meow templates
  meow fonts
  meow version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a sub-command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Fprintf(stdout, "meow %s (built %s)\n%s\n", Version, BuildTime, RepositoryURL)
			return 0
		case "templates":
			return listTemplates(stdout)
		case "fonts":
			for _, f := range assets.ListFonts() {
				fmt.Fprintln(stdout, f)
			}
			return 0
		case "serve":
			return serve(ctx, args[1:], stderr)
		case "help", "-h", "-help", "--help":
			fmt.Fprint(stdout, usage)
			return 0
		}
	}
	return renderCmd(ctx, args, stdout, stderr)
}

func listTemplates(w io.Writer) int {
	for _, t := range layout.Templates {
		g, err := layout.DefaultGeometry(t)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%-8s %-13s %dx%d\n", t, t.Mode(), g.Width, g.Height)
	}
	return 0
}

// configFlags are shared by the render and serve commands.
type configFlags struct {
	path string
	dir  string
	list bool
}

func (c *configFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.path, "config", "", "Configuration file (.json or .toml) or name under -config-dir")
	fs.StringVar(&c.dir, "config-dir", defaultConfigDir, "Configuration directory")
	fs.BoolVar(&c.list, "list-configs", false, "List available configurations and exit")
}

// load resolves -config as a file path first, then as a name in -config-dir.
func (c *configFlags) load() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if c.path == "" {
		return config.Load("")
	}
	if _, err := os.Stat(c.path); err == nil || filepath.Ext(c.path) != "" {
		return config.Load(c.path)
	}
	return config.NewManager(c.dir).Load(c.path)
}

func (c *configFlags) printList(w io.Writer) int {
	names, err := config.NewManager(c.dir).List()
	if err != nil {
		fmt.Fprintf(w, "Config enumeration failed: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, "Available configurations:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return 0
}

// setup loads configuration and installs the logger. The closer must be
// called on exit.
func setup(cf *configFlags) (*config.Config, io.Closer, error) {
	cfg, err := cf.load()
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}
	closer, err := logger.Init(logger.Options{
		Level:     cfg.Log.Level,
		File:      cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

type renderOptions struct {
	image    string
	output   string
	info     string
	infoFile string
	mode     string
	seed     int64
	seeded   bool
	dryRun   bool
	watch    bool
}

func renderCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("meow", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cf   configFlags
		opts renderOptions
	)
	cf.register(fs)
	fs.StringVar(&opts.image, "image", "", "Base image path or http(s) URL")
	fs.StringVar(&opts.output, "output", "", "Output file (.jpg, .png, .bmp, .tiff); default from config")
	fs.StringVar(&opts.info, "info", "", "Weather info as JSON")
	fs.StringVar(&opts.infoFile, "info-file", "", "Read weather info JSON from a file")
	fs.StringVar(&opts.mode, "mode", "", "corner-mode | bottom-mode | chinese-mode | light-mode")
	fs.Int64Var(&opts.seed, "seed", 0, "Seed for greeting selection")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Validate and print the draw plan without writing output")
	fs.BoolVar(&opts.watch, "watch", false, "Re-render whenever -info-file changes")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seeded = true
		}
	})

	if cf.list {
		return cf.printList(stdout)
	}
	if err := opts.check(); err != nil {
		fmt.Fprintf(stderr, "meow: %v\n", err)
		fs.Usage()
		return 2
	}

	cfg, closer, err := setup(&cf)
	if err != nil {
		fmt.Fprintf(stderr, "meow: %v\n", err)
		return 1
	}
	defer closer.Close()

	c, err := newCardJob(cfg, opts)
	if err != nil {
		fmt.Fprintf(stderr, "meow: %v\n", err)
		return 1
	}
	defer c.close()

	if err := c.run(ctx, stdout); err != nil {
		reportError(stderr, err)
		if !opts.watch {
			return 1
		}
	}
	if !opts.watch {
		return 0
	}
	if err := c.watch(ctx, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "meow: %v\n", err)
		return 1
	}
	return 0
}

func (o renderOptions) check() error {
	switch {
	case o.info == "" && o.infoFile == "":
		return errors.New("one of -info or -info-file is required")
	case o.info != "" && o.infoFile != "":
		return errors.New("-info and -info-file are mutually exclusive")
	case o.watch && o.infoFile == "":
		return errors.New("-watch requires -info-file")
	case o.watch && o.dryRun:
		return errors.New("-watch cannot be combined with -dry-run")
	case o.image == "" && !o.dryRun:
		return errors.New("-image is required")
	}
	return nil
}

// reportError prints render errors verbatim so callers can relay them.
func reportError(w io.Writer, err error) {
	if re, ok := fit.AsRenderError(err); ok {
		fmt.Fprintln(w, re.Error())
		return
	}
	fmt.Fprintf(w, "meow: %v\n", err)
}

// cardJob renders one card from CLI options, possibly repeatedly.
type cardJob struct {
	opts     renderOptions
	cfg      *config.Config
	renderer *layout.Renderer
	template layout.Template
	fetcher  *imageio.Fetcher
	out      *output.Manager
}

func newCardJob(cfg *config.Config, opts renderOptions) (*cardJob, error) {
	tmpl := cfg.GetTemplate()
	if opts.mode != "" {
		t, err := layout.ParseTemplate(opts.mode)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}

	r, err := assets.NewRenderer(cfg)
	if err != nil {
		return nil, fmt.Errorf("font initialization failed: %w", err)
	}

	c := &cardJob{
		opts:     opts,
		cfg:      cfg,
		renderer: r,
		template: tmpl,
		fetcher:  imageio.NewFetcher(cfg.GetFetchTimeout(), cfg.Fetch.Retries, logger.Module("fetch")),
		out:      output.NewManager(),
	}
	if opts.dryRun {
		return c, nil
	}

	path := opts.output
	if path == "" {
		path = cfg.Output
	}
	h, err := output.NewFileHandler(path, cfg.GetJPEGQuality())
	if err != nil {
		return nil, err
	}
	c.out.AddHandler(h)
	return c, nil
}

func (c *cardJob) close() {
	if err := c.out.Close(); err != nil {
		logger.WarnModule("output", "Close failed: %v", err)
	}
}

func (c *cardJob) record() (weather.Record, error) {
	if c.opts.infoFile == "" {
		return weather.Parse(c.opts.info)
	}
	f, err := os.Open(c.opts.infoFile)
	if err != nil {
		return weather.Record{}, err
	}
	defer f.Close()
	return weather.Decode(f)
}

func (c *cardJob) picker() layout.Picker {
	if c.opts.seeded {
		return layout.SeededPicker(c.opts.seed)
	}
	return nil
}

func (c *cardJob) run(ctx context.Context, stdout io.Writer) error {
	rec, err := c.record()
	if err != nil {
		return err
	}

	if c.opts.dryRun {
		plan, err := c.renderer.Plan(rec, c.template, c.picker())
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, plan.String())
		return nil
	}

	start := time.Now()
	base, err := imageio.Open(ctx, c.opts.image, c.fetcher)
	if err != nil {
		return err
	}
	g, _ := c.renderer.Geometry(c.template)
	base = imageio.Cover(base, g.Width, g.Height)

	card, err := c.renderer.Render(base, rec, c.template, c.picker())
	if err != nil {
		return err
	}
	if err := c.out.Output(card); err != nil {
		return err
	}
	logger.DebugModule("render", "%s card in %v", c.template, time.Since(start).Round(time.Millisecond))
	fmt.Fprintln(stdout, "Create Meow Done!")
	return nil
}

// watch re-renders on every change to the info file until ctx ends.
// Failed renders are reported and the previous card is left in place.
func (c *cardJob) watch(ctx context.Context, stdout, stderr io.Writer) error {
	w, err := watch.New(c.opts.infoFile, WatchDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.InfoModule("watch", "Watching %s", c.opts.infoFile)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown initiated")
			return nil
		case <-w.Events():
			if err := c.run(ctx, stdout); err != nil {
				reportError(stderr, err)
			}
		}
	}
}

func serve(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("meow serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cf configFlags
	cf.register(fs)
	addr := fs.String("addr", "", "Listen address; default from config")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, closer, err := setup(&cf)
	if err != nil {
		fmt.Fprintf(stderr, "meow: %v\n", err)
		return 1
	}
	defer closer.Close()

	r, err := assets.NewRenderer(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "meow: font initialization failed: %v\n", err)
		return 1
	}

	listen := strings.TrimSpace(*addr)
	if listen == "" {
		listen = cfg.Server.Addr
	}

	logger.Info("Meow %s - Repository: %s", Version, RepositoryURL)
	logger.Info("started, pid is %d", os.Getpid())

	srv := server.New(r, cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(listen) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed: %v", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("Shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed: %v", err)
		return 1
	}
	return 0
}
