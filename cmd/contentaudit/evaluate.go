package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/content-quality/analyzer"
	"github.com/seo-optimizer/content-quality/logging"
	"github.com/seo-optimizer/content-quality/report"
)

const stdinName = "-"

// errInputsFailed is returned when at least one input could not be evaluated.
var errInputsFailed = errors.New("evaluation failed")

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [file...]",
		Short: "Evaluate one or more documents",
		Long: `Evaluate scores each document and writes one report per input to stdout.
With no arguments, or "-", the document is read from stdin.

Examples:
  # Evaluate a page for two keywords
  contentaudit evaluate post.html --keywords "worker pool,golang"

  # Markdown report for stdin
  curl -s https://example.com/post | contentaudit evaluate --format markdown --base-domain example.com

  # Custom weights and thresholds
  contentaudit evaluate -c evaluation.yaml drafts/*.html`,
		Args: cobra.ArbitraryArgs,
		RunE: runEvaluateCmd,
	}

	cmd.Flags().StringSliceP("keywords", "k", nil, "Target keywords, primary first")
	cmd.Flags().StringP("config", "c", "", "YAML file with evaluation settings")
	cmd.Flags().String("base-domain", "", "Domain whose links count as internal")
	cmd.Flags().StringP("format", "f", string(report.FormatJSON), "Output format: json, yaml or markdown")
	cmd.Flags().Int("concurrency", analyzer.DefaultBatchConcurrency, "Documents evaluated in parallel")

	return cmd
}

type evaluateOptions struct {
	keywords    []string
	cfg         analyzer.Config
	format      report.Format
	concurrency int
}

func runEvaluateCmd(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions(cmd)
	if err != nil {
		return err
	}

	logger, err := setupLogger(getVerboseFlag(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if len(args) == 0 {
		args = []string{stdinName}
	}
	reqs, err := readInputs(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	for i := range reqs {
		reqs[i].Keywords = opts.keywords
		reqs[i].Config = &opts.cfg
	}

	a := analyzer.New(analyzer.WithLogger(logger))
	results := a.EvaluateBatch(cmd.Context(), reqs, opts.concurrency)

	return writeResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, opts, logger)
}

func buildOptions(cmd *cobra.Command) (*evaluateOptions, error) {
	flags := cmd.Flags()

	keywords, _ := flags.GetStringSlice("keywords")
	configPath, _ := flags.GetString("config")
	baseDomain, _ := flags.GetString("base-domain")
	formatName, _ := flags.GetString("format")
	concurrency, _ := flags.GetInt("concurrency")

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	cfg, err := loadEvaluationConfig(configPath)
	if err != nil {
		return nil, err
	}
	if baseDomain != "" {
		cfg.BaseDomain = baseDomain
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return &evaluateOptions{
		keywords:    keywords,
		cfg:         cfg,
		format:      format,
		concurrency: concurrency,
	}, nil
}

// loadEvaluationConfig decodes path over the defaults. An empty path yields
// the defaults.
func loadEvaluationConfig(path string) (analyzer.Config, error) {
	cfg := analyzer.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func readInputs(stdin io.Reader, args []string) ([]analyzer.Request, error) {
	reqs := make([]analyzer.Request, 0, len(args))
	readStdin := false

	for _, name := range args {
		var data []byte
		var err error
		if name == stdinName {
			if readStdin {
				return nil, errors.New("stdin given more than once")
			}
			readStdin = true
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		reqs = append(reqs, analyzer.Request{ID: name, Document: string(data)})
	}
	return reqs, nil
}

func writeResults(stdout, stderr io.Writer, results []analyzer.BatchResult, opts *evaluateOptions, logger logging.Logger) error {
	w, err := report.NewWriter(string(opts.format), stdout)
	if err != nil {
		return err
	}

	failed := 0
	written := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", displayName(result.ID), result.Err)
			continue
		}

		if written > 0 && opts.format == report.FormatYAML {
			fmt.Fprintln(stdout, "---")
		}
		snapshot := report.NewSnapshot(displayName(result.ID), opts.keywords, result.Evaluation)
		if _, err := w.Write(snapshot); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		written++

		logger.Debug("Evaluated input",
			logging.String("input", displayName(result.ID)),
			logging.Int("overall_score", result.Evaluation.OverallScore),
		)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d inputs", errInputsFailed, failed, len(results))
	}
	return nil
}

func displayName(id string) string {
	if id == stdinName {
		return "stdin"
	}
	return strings.TrimSpace(id)
}
