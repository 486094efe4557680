package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pyeo/internal/config"
	"pyeo/internal/engine"
	"pyeo/internal/lint"
	"pyeo/internal/report"
	"pyeo/internal/rules"
)

// errDiagnostics makes the process exit with status 1.
var errDiagnostics = errors.New("diagnostics reported")

// flags holds the persistent flags shared by every command.
type flags struct {
	config   string
	format   string
	noColor  bool
	cache    string
	noCache  bool
	diff     string
	jobs     int
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to an exit status: 0 clean, 1 diagnostics reported,
// 2 usage, configuration or runtime errors.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errDiagnostics):
		return 1
	default:
		_, _ = color.New(color.FgRed).Fprintln(stderr, "Error:", err)
		return 2
	}
}

func newRootCmd() *cobra.Command {
	opts := &flags{}
	root := &cobra.Command{
		Use:           "pyeo",
		Short:         "Object elegance checker for Python sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.config, "config", "c", config.DefaultPath, "Path to the YAML configuration")
	pf.StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	pf.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	pf.StringVar(&opts.cache, "cache", "", "Path to the SQLite result cache")
	pf.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the result cache")
	pf.StringVar(&opts.diff, "diff", "", "Only report diagnostics touched by changes since this git ref")
	pf.IntVarP(&opts.jobs, "jobs", "j", 0, "Files processed in parallel (0 means one per CPU)")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newTypecheckCmd(opts))
	root.AddCommand(newRulesCmd())
	root.AddCommand(newCacheCmd(opts))
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (f *flags) setup(cmd *cobra.Command) (*config.Config, *log.Logger, error) {
	set := cmd.Flags()
	if set.Changed("config") {
		if _, err := os.Stat(f.config); err != nil {
			return nil, nil, errors.Mark(errors.Wrapf(err, "config %s", f.config), config.ErrInvalidConfig)
		}
	}

	cfg, err := config.LoadConfig(f.config)
	if err != nil {
		return nil, nil, err
	}
	if set.Changed("format") {
		cfg.Format = f.format
	}
	if set.Changed("cache") {
		cfg.Cache = f.cache
	}
	if f.noCache {
		cfg.Cache = ""
	}
	if set.Changed("jobs") {
		cfg.Jobs = f.jobs
	}
	if set.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Mark(err, config.ErrInvalidConfig)
	}
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Level: level, Prefix: "pyeo"})
	logger.Debug("config loaded", "path", f.config, "format", cfg.Format, "cache", cfg.Cache, "jobs", cfg.Jobs)
	return cfg, logger, nil
}

func ruleOptions(cfg *config.Config) rules.Options {
	return rules.Options{AvailableErNames: cfg.AvailableErNames}
}

func codeFilter(cfg *config.Config) lint.Filter {
	return lint.Filter{Select: cfg.Select, Ignore: cfg.Ignore}
}

func (f *flags) write(cmd *cobra.Command, cfg *config.Config, results []engine.FileResult) (int, error) {
	return report.NewReporter(cmd.OutOrStdout(), report.Format(cfg.Format), f.noColor).Write(results)
}

// emit writes results and turns a non-empty report into errDiagnostics.
func (f *flags) emit(cmd *cobra.Command, cfg *config.Config, results []engine.FileResult) error {
	n, err := f.write(cmd, cfg, results)
	if err != nil {
		return err
	}
	if n > 0 {
		return errDiagnostics
	}
	return nil
}

func paths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report.WriteRules(cmd.OutOrStdout(), rules.Catalogue())
		},
	}
}
