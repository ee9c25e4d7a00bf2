package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version information set by ldflags at build time
var (
	buildDate  = "unknown"
	commitHash = "unknown"
)

var errUsage = errors.New("expected <url> and <output-file>")

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "webshot <url> <output-file> [--option=value ...]",
		Short: "Render a web page in a headless browser and save a screenshot",
		// options use the --name=value syntax understood by ParseArgs
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE:               run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	positional, tokens := SplitCommandLine(args)
	cmdline := ParseArgs(tokens)

	if _, ok := cmdline["help"]; ok {
		printUsage(cmd.OutOrStdout())
		return nil
	}
	if _, ok := cmdline["version"]; ok {
		fmt.Fprintf(cmd.OutOrStdout(), "webshot\n  build date: %s\n  commit: %s\n", buildDate, commitHash)
		return nil
	}

	if len(positional) != 2 {
		return errUsage
	}

	raw, err := BuildRawOptions(cmdline)
	if err != nil {
		return err
	}

	opts, err := NewOptions(raw)
	if err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if opts.Debug {
		l := logger.FromCtx(ctx).WithLevel(logger.LevelDebug)
		ctx = logger.CtxWithLogger(ctx, l)
		cmd.SetContext(ctx)
	}

	for _, key := range UnknownOptions(raw) {
		logger.Warnf(ctx, "ignoring unknown option --%s", key)
	}

	renderer, err := openRenderer(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := renderer.Close(); err != nil {
			logger.Errorf(ctx, "unable to shut the browser down: %v", err)
		}
	}()

	return Capture(ctx, renderer, CaptureJob{
		URL:        positional[0],
		OutputPath: positional[1],
		Options:    opts,
	})
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// reportError writes a failed invocation to the log: the message, followed by
// the call trace when the error carries one.
func reportError(ctx context.Context, stderr io.Writer, err error) {
	if errors.Is(err, errUsage) {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		printUsage(stderr)
		return
	}

	logger.Errorf(ctx, "%v", err)

	var st stackTracer
	if errors.As(err, &st) {
		logger.Errorf(ctx, "trace:%+v", st.StackTrace())
	}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	// run may have replaced the logger, e.g. for --debug
	if cmdCtx := cmd.Context(); cmdCtx != nil {
		ctx = cmdCtx
	}
	reportError(ctx, stderr, err)
	return 1
}

func main() {
	ll := xlogrus.DefaultLogrusLogger()
	ll.Out = os.Stderr
	if f, ok := ll.Formatter.(*logrus.TextFormatter); ok {
		f.FullTimestamp = true
	}
	l := xlogrus.New(ll).WithLevel(logger.LevelInfo)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}

	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	belt.Flush(ctx)
	os.Exit(code)
}
