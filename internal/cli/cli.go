package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/potsdam-status/internal/config"
	"github.com/pfrederiksen/potsdam-status/internal/ledger"
	"github.com/pfrederiksen/potsdam-status/internal/logger"
	"github.com/pfrederiksen/potsdam-status/internal/scraper"
	"github.com/pfrederiksen/potsdam-status/internal/tracker"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// rootOptions holds the flag values shared by all commands
type rootOptions struct {
	configFile string
	csvPath    string
	url        string
	format     string
	timeout    time.Duration
	dryRun     bool
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "potsdam-status",
		Short: "Track the Potsdam naturalization processing backlog",
		Long: `Fetches the naturalization status page of the City of Potsdam, extracts the
sentence announcing up to which application date requests are processed, and
appends it to a CSV ledger when it changed since the last run.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Path to a YAML config file (default: "+config.DefaultFile+" if present)")
	pf.StringVar(&opts.csvPath, "csv", ledger.DefaultPath, "Path to the CSV ledger")
	pf.StringVar(&opts.format, "format", string(FormatText), "Output format: text or json")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output and debug logging")

	cmd.Flags().StringVar(&opts.url, "url", scraper.StatusPageURL, "Override the source URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", scraper.Timeout, "HTTP timeout for fetching the page")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would be appended without writing")

	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newParseCmd(opts))

	return cmd
}

// resolveConfig layers defaults, config file, environment and flags, then
// installs the logger for the resolved level.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, OutputFormat, error) {
	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return nil, "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg := config.NewDefaultConfig()
	if opts.configFile != "" {
		if err := config.Load(opts.configFile, cfg); err != nil {
			return nil, "", err
		}
	} else if _, err := config.LoadOptional(config.DefaultFile, cfg); err != nil {
		return nil, "", err
	}

	cfg.ApplyEnv(os.LookupEnv)

	flags := cmd.Flags()
	if flags.Changed("csv") {
		cfg.Ledger.Path = opts.csvPath
	}
	if flags.Lookup("url") != nil && flags.Changed("url") {
		cfg.Source.URL = opts.url
	}
	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		cfg.Source.Timeout = opts.timeout
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}

	logger.SetDefault(logger.New(cfg.Log.ParsedLevel(), cmd.ErrOrStderr()))

	return cfg, format, nil
}

// runUpdate is the main command logic
func runUpdate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, format, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger.Debug("resolved configuration", logger.Fields{
		"url":     cfg.Source.URL,
		"ledger":  cfg.Ledger.Path,
		"timeout": cfg.Source.Timeout.String(),
		"dry_run": opts.dryRun,
	})

	ldg, err := ledger.New(cfg.Ledger.Path, cfg.Ledger.Options()...)
	if err != nil {
		return fmt.Errorf("initializing ledger: %w", err)
	}

	sc := scraper.New(
		scraper.WithTimeout(cfg.Source.Timeout),
		scraper.WithUserAgent(cfg.Source.UserAgent),
	)
	tr := tracker.New(sc, ldg)

	var result *tracker.Result
	if opts.dryRun {
		result, err = tr.Check(cmd.Context(), cfg.Source.URL)
	} else {
		result, err = tr.Run(cmd.Context(), cfg.Source.URL)
	}
	if err != nil {
		return err
	}

	if err := WriteResult(cmd.OutOrStdout(), result, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	logger.Debug("run metrics", logger.DefaultMetrics().Fields())

	return nil
}

// Run executes the CLI with args and returns the process exit status.
// Failures are reported on stderr as a single "error: ..." line.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

// Execute runs the CLI
func Execute(ctx context.Context) {
	os.Exit(Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}
