// Command duotext annotates fields with bilingual translations and strips
// them back to their originals.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZaguanLabs/duotext"
	"github.com/ZaguanLabs/duotext/cache"
	"github.com/ZaguanLabs/duotext/config"
	"github.com/ZaguanLabs/duotext/processor"
	"github.com/ZaguanLabs/duotext/provider"
	"github.com/sirupsen/logrus"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = duotext.FullVersion()
	buildDate = duotext.BuildDate
)

// stdin is read when no input file is given.
var stdin io.Reader = os.Stdin

const usage = `Usage: duotext [flags] <command> [input]

Commands:
  translate   annotate every field with a translation
  restore     strip annotations back to the originals
  clear       keep only the translation (drops the originals)
  toggle      switch between bilingual and original-only display
  auto        restore annotated fields, translate plain ones
  inspect     show the layout of every field
  diff        compare two versions: duotext diff <old> <new>
  serve       run the HTTP API

Inputs: .html, .htm, .go, .xlsx, .json, redis:<table>, a plain text file or stdin.

Flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	command    string
	inputs     []string
	output     string
	keys       []string
	provider   string
	cacheFile  string
	jsonOutput bool
	quiet      bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("duotext", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	configPath := fs.String("config", config.FileName, "Config file (missing file means defaults)")
	targetLang := fs.String("lang", "", "Target language code (e.g., es_ES, ja_JP)")
	sourceLang := fs.String("source", "", "Source language code")
	placement := fs.String("placement", "", "Where the translation goes: below or above")
	output := fs.String("output", "", "Output file (default: stdout, or in place for tables)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	keys := fs.String("keys", "", "Comma-separated field keys to process (default: all)")
	apiKey := fs.String("api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	model := fs.String("model", "", "OpenAI model to use")
	providerName := fs.String("provider", "openai", "Translation provider: openai, custom (provider.base_url) or mock")
	cacheTTL := fs.Int("cache-ttl", -1, "Cache TTL in seconds (default: from config)")
	cacheFile := fs.String("cache-file", "", "Load the cache from this file before the run and save it after")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	addr := fs.String("addr", "", "Listen address for serve")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", duotext.Name, version)
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("a command is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *targetLang != "" {
		cfg.Translation.TargetLang = *targetLang
	}
	if *sourceLang != "" {
		cfg.Translation.SourceLang = *sourceLang
	}
	if *placement != "" {
		cfg.Translation.Placement = *placement
	}
	if *apiKey != "" {
		cfg.Provider.APIKey = *apiKey
	}
	if *model != "" {
		cfg.Provider.Model = *model
	}
	if *cacheTTL >= 0 {
		cfg.Cache.TTLSeconds = *cacheTTL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return err
	}
	if *quiet {
		logger.SetLevel(logrus.ErrorLevel)
	}

	opts := options{
		command:    fs.Arg(0),
		inputs:     fs.Args()[1:],
		output:     *output,
		keys:       splitList(*keys),
		provider:   *providerName,
		cacheFile:  *cacheFile,
		jsonOutput: *jsonOutput,
		quiet:      *quiet,
	}
	if opts.output == "" {
		opts.output = *outputShort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.command {
	case "inspect":
		return runInspect(ctx, cfg, opts, stdout)
	case "diff":
		return runDiff(ctx, cfg, opts, stdout)
	case "serve":
		return runServe(ctx, cfg, opts, logger)
	}

	action, ok := duotext.ParseAction(opts.command)
	if !ok {
		fs.Usage()
		return fmt.Errorf("unknown command %q", opts.command)
	}
	return runAction(ctx, cfg, opts, action, logger, stdout, stderr)
}

// runAction applies action to one input and writes the result.
func runAction(ctx context.Context, cfg *config.Config, opts options, action duotext.Action, logger *logrus.Logger, stdout, stderr io.Writer) error {
	if len(opts.inputs) > 1 {
		return errors.New("at most one input can be given")
	}
	input := ""
	if len(opts.inputs) == 1 {
		input = opts.inputs[0]
	}

	needsProvider := action == duotext.ActionTranslate || action == duotext.ActionAuto
	annotator, finish, err := newAnnotator(cfg, opts, needsProvider, logger)
	if err != nil {
		return err
	}
	defer finish()

	doc, err := openDocument(ctx, cfg, input)
	if err != nil {
		return err
	}
	defer doc.Close()

	if !opts.quiet {
		fmt.Fprintf(stderr, "Running %s on %s (%s)...\n", action, doc.name, cfg.Translation.TargetLang)
	}

	start := time.Now()
	result, err := doc.Apply(ctx, annotator, action, opts.keys)
	if err != nil {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	elapsed := time.Since(start)

	if err := doc.Write(opts.output, result, stdout, !opts.jsonOutput); err != nil {
		return err
	}

	if opts.jsonOutput {
		out := jsonOutput{
			Input:     doc.name,
			Output:    opts.output,
			Report:    result.Report,
			ElapsedMs: elapsed.Milliseconds(),
		}
		if doc.streams() && opts.output == "" {
			out.Content = result.Content
		}
		return writeJSON(stdout, out)
	}

	if !opts.quiet {
		printReport(stderr, result.Report, elapsed)
	}
	return nil
}

// newAnnotator wires the provider, cache, processors and logger from cfg.
// The returned func persists the cache file and releases connections.
func newAnnotator(cfg *config.Config, opts options, needsProvider bool, logger *logrus.Logger, extra ...duotext.AnnotatorOption) (*duotext.Annotator, func(), error) {
	p, err := newProvider(cfg, opts.provider, needsProvider, logger)
	if err != nil {
		return nil, nil, err
	}

	c, closeCache, err := openCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if opts.cacheFile != "" {
		res, err := cache.NewImporter(c).ImportFromFile(opts.cacheFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			closeCache()
			return nil, nil, fmt.Errorf("loading cache file: %w", err)
		default:
			logger.WithFields(logrus.Fields{
				"file":     opts.cacheFile,
				"imported": res.Imported,
				"skipped":  res.Skipped,
			}).Debug("cache loaded")
		}
	}

	annotatorOpts := append(cfg.AnnotatorOptions(),
		duotext.WithCache(c),
		duotext.WithLogger(logger),
	)
	annotatorOpts = append(annotatorOpts, processor.Register()...)
	annotatorOpts = append(annotatorOpts, extra...)

	a := duotext.NewAnnotator(cfg.Translation.TargetLang, p, annotatorOpts...)

	finish := func() {
		if opts.cacheFile != "" {
			err := cache.NewExporter(c).ExportToFile(opts.cacheFile, map[string]string{
				"target_lang": cfg.Translation.TargetLang,
				"generator":   duotext.UserAgent(),
			})
			if err != nil {
				logger.WithError(err).WithField("file", opts.cacheFile).Error("saving cache file failed")
			}
		}
		closeCache()
	}
	return a, finish, nil
}

// newProvider returns nil when the command never translates and no provider
// was configured.
func newProvider(cfg *config.Config, name string, required bool, logger *logrus.Logger) (duotext.AIProvider, error) {
	switch name {
	case "mock":
		return provider.NewMockProvider(), nil
	case "custom":
		if cfg.Provider.BaseURL == "" {
			return nil, errors.New("custom provider needs provider.base_url in the config")
		}
		return wrapProvider(cfg, provider.NewCustomProvider(provider.CustomConfig{
			URL:    cfg.Provider.BaseURL,
			APIKey: cfg.Provider.APIKey,
			Logger: logger,
		}), logger), nil
	case "openai":
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	if cfg.Provider.APIKey == "" {
		if required {
			return nil, errors.New("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
		}
		return nil, nil
	}

	return wrapProvider(cfg, provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:      cfg.Provider.APIKey,
		Model:       cfg.Provider.Model,
		Temperature: cfg.Provider.Temperature,
		BaseURL:     cfg.Provider.BaseURL,
	}), logger), nil
}

// wrapProvider adds the configured rate limit and retries.
func wrapProvider(cfg *config.Config, p duotext.AIProvider, logger *logrus.Logger) duotext.AIProvider {
	if cfg.Provider.RequestsPerMinute > 0 {
		p = duotext.NewRateLimitedProvider(p, duotext.RateLimitConfig{
			RequestsPerMinute: cfg.Provider.RequestsPerMinute,
		})
	}

	retry := duotext.DefaultRetryConfig()
	retry.MaxRetries = cfg.Provider.MaxRetries
	return duotext.NewRetryableProvider(p, retry, logger)
}

// openCache uses Redis when a URL is configured and memory otherwise.
func openCache(cfg *config.Config, logger *logrus.Logger) (cache.Enumerable, func(), error) {
	if cfg.Cache.RedisURL == "" {
		return cache.NewInMemoryCache(cfg.Cache.TTLSeconds), func() {}, nil
	}

	rc, err := cache.NewRedisCache(cache.RedisConfig{
		URL:       cfg.Cache.RedisURL,
		TTL:       cfg.Cache.TTLSeconds,
		KeyPrefix: cfg.Cache.KeyPrefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis cache: %w", err)
	}
	rc.SetLogger(logger)
	return rc, func() { _ = rc.Close() }, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
