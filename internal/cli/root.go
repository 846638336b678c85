// Package cli implements the ocr-translator command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ocr-translator/internal/artifacts"
	"ocr-translator/internal/config"
	"ocr-translator/internal/logger"
	"ocr-translator/internal/ocr/tesseract"
	"ocr-translator/internal/pipeline"
	"ocr-translator/internal/types"
)

var version = "dev"

// app holds the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	envFile    string
	workDir    string
	quiet      bool
	verbose    bool
	noColor    bool

	cfg types.Config
	ui  *progressUI

	stdout io.Writer
	stderr io.Writer

	// extra options appended when building the pipeline
	pipelineOpts []pipeline.Option
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{envFile: ".env", stdout: stdout, stderr: stderr}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ocr-translator",
		Short: "Translate scanned PDF documents into bilingual PDF or Word files",
		Long: `ocr-translator rasterizes a scanned PDF, recognizes the text of every page,
translates the whole document with a large language model in page-aware batches
and writes a bilingual PDF or Word document.

Stages can be run one at a time (extract-images, recognize-text, translate,
render-document) against a shared work directory, or together with run-all.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (JSON or YAML)")
	pf.StringVarP(&a.workDir, "work-dir", "w", "", "directory for intermediate files (default \"./work\")")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "only print warnings and errors")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.newExtractCmd(),
		a.newRecognizeCmd(),
		a.newTranslateCmd(),
		a.newRenderCmd(),
		a.newRunAllCmd(),
		a.newInspectCmd(),
		a.newVersionCmd(),
	)
	return root
}

// setup loads configuration and initialises logging before any subcommand.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		color.NoColor = true
	}

	manager, err := config.NewConfigManager(a.configPath)
	if err != nil {
		return err
	}
	manager.SetEnvFile(a.envFile)
	if err := manager.Load(); err != nil {
		return err
	}
	a.cfg = manager.GetConfig()
	if err := applyFlagOverrides(cmd, &a.cfg); err != nil {
		return err
	}
	if a.workDir != "" {
		a.cfg.WorkDirectory = a.workDir
	}
	if a.cfg.WorkDirectory == "" {
		a.cfg.WorkDirectory = "work"
	}

	if err := a.initLogger(); err != nil {
		return err
	}
	a.ui = newProgressUI(a.stderr, a.quiet)
	return nil
}

func (a *app) initLogger() error {
	level, err := logger.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return types.NewAppError(types.ErrConfig, "invalid log level", err)
	}
	switch {
	case a.verbose:
		level = logger.LevelDebug
	case a.quiet:
		level = logger.LevelWarn
	}

	lc := logger.DefaultConfig()
	lc.Level = level
	lc.Console = a.stderr
	lc.Color = !a.noColor
	lc.LogFilePath = a.cfg.LogFile
	if err := logger.Init(lc); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to initialise logging", err)
	}
	return nil
}

// pipeline builds a pipeline over the configured work directory.
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	store, err := artifacts.NewStore(a.cfg.WorkDirectory)
	if err != nil {
		return nil, err
	}
	opts := []pipeline.Option{
		pipeline.WithRecognizerFactory(tesseract.Factory),
		pipeline.WithStatusCallback(a.ui.Update),
	}
	opts = append(opts, a.pipelineOpts...)
	return pipeline.New(a.cfg, store, opts...), nil
}

// run executes the root command and returns the process exit status.
func (a *app) run(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if a.ui != nil {
		a.ui.Close()
	}
	_ = logger.Close()

	if err != nil {
		printDiagnostic(a.stderr, err)
	}
	return ExitCode(err)
}

// Execute runs the command line with os.Args and returns the exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{err: fmt.Errorf("%s: expected %d argument(s), got %d", cmd.CommandPath(), n, len(args))}
		}
		return nil
	}
}
