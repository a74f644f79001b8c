// Command archivist files documents by rules: it matches files against the
// tests of each rule in a YAML rule file and applies the rule's actions
// (rename to the canonical "date - category - TAGS - name" form, tag, move,
// copy, nest into date folders).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/display"
	"github.com/backmassage/archivist/internal/logging"
	"github.com/backmassage/archivist/internal/pipeline"
)

func main() {
	os.Exit(run())
}

// exitError carries a non-zero exit code out of a command without printing
// anything further.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func run() int {
	cfg := config.DefaultConfig()
	root := newRootCmd(&cfg)

	err := root.Execute()
	var exit exitError
	switch {
	case err == nil:
		return pipeline.ExitOK
	case errors.As(err, &exit):
		return exit.code
	default:
		fmt.Fprintf(os.Stderr, "archivist: %v\n", err)
		return pipeline.ExitFatal
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "archivist",
		Short:         "Rule-driven document filing",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	finalize := config.BindFlags(root.PersistentFlags(), cfg)
	root.PersistentPreRunE = func(*cobra.Command, []string) error {
		finalize()
		return cfg.Validate()
	}

	runCmd := newRunCmd(cfg)
	root.RunE = runCmd.RunE
	root.AddCommand(
		runCmd,
		newWatchCmd(cfg),
		newScheduleCmd(cfg),
		newCheckCmd(cfg),
		newParseCmd(),
		newHistoryCmd(cfg),
	)
	return root
}

// startLogger opens the logger and prints the banner. Errors before this
// point go to stderr through run.
func startLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	display.PrintBanner(os.Stdout, config.Version)
	return log, nil
}

// signalContext cancels on SIGINT/SIGTERM so a run can stop between files
// without leaving a file half-processed.
func signalContext(log *logging.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, finishing current file...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// openRunner loads the rules; a load failure is fatal.
func openRunner(cfg *config.Config, log *logging.Logger) (*pipeline.Runner, error) {
	r, err := pipeline.New(cfg, log)
	if err != nil {
		log.Error("%v", err)
		return nil, exitError{pipeline.ExitFatal}
	}
	return r, nil
}

var errNoJournal = errors.New("journal disabled (--no-journal)")
