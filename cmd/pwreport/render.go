package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/pwreport/pwreport"
	"github.com/pwreport/pwreport/reporter"
	"github.com/pwreport/pwreport/skipcond"
	"github.com/pwreport/pwreport/stream"
)

// Render command errors.
var (
	ErrNoEventFiles = errors.New("no event stream files found")
)

// eventExtensions are the file extensions treated as recorded event
// streams when walking directories.
var eventExtensions = []string{"jsonl", "ndjson"}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Replay recorded event streams into a JSON report",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "report output path (- for stdout)",
				Sources: cli.EnvVars("PWREPORT_OUTPUT"),
			},
			&cli.StringFlag{
				Name:  "junit",
				Usage: "also write a JUnit XML report to this path",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "progress output format (dots, verbose, tui)",
			},
			&cli.IntFlag{
				Name:  "max-reruns",
				Usage: "default rerun budget for tests without one (overrides config)",
				Value: -1,
			},
			&cli.StringSliceFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "skip-condition value as key=value (repeatable)",
			},
			&cli.IntFlag{
				Name:  "fail-fast",
				Usage: "stop replaying after this many final failures (0 = never)",
			},
		},
		Action: runRender,
	}
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}

	defer func() {
		_ = logger.Sync()
	}()

	args := cmd.Args().Slice()
	if len(args) == 0 {
		args = []string{"."}
	}

	files, err := collectEventFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return ErrNoEventFiles
	}

	logger.Debug("collected event streams", zap.Strings("files", files))

	// Config (optional): flag > config > defaults.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting cwd: %w", err)
	}

	cfg, cfgErr := pwreport.LoadConfig(cwd)
	if cfgErr != nil {
		cfg = &pwreport.Config{}
	}

	output := firstNonEmpty(cmd.String("output"), cfg.Output, "report.json")
	junitPath := firstNonEmpty(cmd.String("junit"), cfg.JUnit)
	format := firstNonEmpty(cmd.String("format"), cfg.Format, reporter.FormatDots)

	if n := int(cmd.Int("max-reruns")); n >= 0 {
		cfg.MaxReruns = n
	}

	conds := skipcond.New(condValues(cfg, cmd.StringSlice("env")), osEnvMap())

	// Progress handler chain. The base handler also renders the final
	// summary once the session is sealed.
	var (
		handler    reporter.Handler
		summarizer reporter.Summarizer
	)

	switch format {
	case "tui":
		tui := reporter.NewTUIHandler(os.Stdout, os.Stderr)
		if err := tui.Start(); err != nil {
			return fmt.Errorf("starting TUI: %w", err)
		}

		handler, summarizer = tui, tui
	default:
		fh := reporter.NewFormatHandler(reporter.NewFormatter(format, os.Stdout), os.Stderr)
		handler, summarizer = fh, fh
	}

	if n := int(cmd.Int("fail-fast")); n > 0 {
		handler = reporter.NewMultiHandler(handler, reporter.NewStopOnFailHandler(n))
	}

	agg := reporter.New(reporter.WithHandler(handler))
	replayer := stream.NewReplayer(agg,
		stream.WithConditions(conds),
		stream.WithRerunPolicy(cfg.RerunsFor),
	)

	if err := replayStreams(ctx, replayer, files, logger); err != nil {
		return err
	}

	doc, err := agg.FinishSession(ctx)
	if err != nil && !errors.Is(err, reporter.ErrMaxFailures) {
		return err
	}

	_ = summarizer.Summary(doc)

	if err := writeReport(output, doc); err != nil {
		return err
	}

	logger.Debug("report written", zap.String("path", output))

	if junitPath != "" {
		if err := writeJUnit(junitPath, doc); err != nil {
			return err
		}
	}

	if code := reporter.ExitCode(doc); code != 0 {
		return cli.Exit("", code)
	}

	return nil
}

// replayStreams feeds each file into the replayer. The failure budget
// and a host protocol violation both end replay early without failing
// the command: the session is still sealed afterwards, so a violation
// produces the truncated document with its top-level error and the
// exit code stays non-zero.
func replayStreams(ctx context.Context, r *stream.Replayer, files []string, logger *zap.Logger) error {
	for _, file := range files {
		err := replayFile(ctx, r, file)

		switch {
		case err == nil:
		case errors.Is(err, reporter.ErrMaxFailures):
			logger.Info("stopping early", zap.String("file", file), zap.Error(err))

			return nil
		case errors.Is(err, reporter.ErrUnknownIdentity):
			logger.Warn("protocol violation, truncating report",
				zap.String("file", file), zap.Error(err))

			return nil
		default:
			return fmt.Errorf("replaying %s: %w", file, err)
		}
	}

	return nil
}

func replayFile(ctx context.Context, r *stream.Replayer, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return r.Replay(ctx, f)
}

func writeReport(output string, doc *reporter.Document) error {
	if output == "-" {
		return reporter.WriteJSON(os.Stdout, doc)
	}

	f, err := os.Create(filepath.Clean(output))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return reporter.WriteJSON(f, doc)
}

func writeJUnit(path string, doc *reporter.Document) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return reporter.WriteJUnit(f, "pwreport", doc)
}

// collectEventFiles resolves args to event stream files: files are
// taken as-is, directories are walked for known extensions.
func collectEventFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		found, err := walkEventFiles(arg)
		if err != nil {
			return nil, err
		}

		files = append(files, found...)
	}

	return files, nil
}

func walkEventFiles(root string) ([]string, error) {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = eventExtensions

	var walkErr error

	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e

		return true
	})

	var (
		files []string
		wg    sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			files = append(files, f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return nil, err
	}

	wg.Wait()

	if walkErr != nil {
		return nil, walkErr
	}

	return files, nil
}

// condValues merges config env values with --env overrides.
func condValues(cfg *pwreport.Config, overrides []string) map[string]string {
	values := make(map[string]string, len(cfg.Env)+len(overrides))
	for k, v := range cfg.Env {
		values[k] = v
	}

	for _, kv := range overrides {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			values[k] = v
		}
	}

	return values
}

func osEnvMap() map[string]string {
	env := make(map[string]string)

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return env
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
