package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/archivist/internal/check"
	"github.com/backmassage/archivist/internal/config"
	"github.com/backmassage/archivist/internal/display"
	"github.com/backmassage/archivist/internal/filename"
	"github.com/backmassage/archivist/internal/journal"
	"github.com/backmassage/archivist/internal/pipeline"
	"github.com/backmassage/archivist/internal/schedule"
	"github.com/backmassage/archivist/internal/watch"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Apply every enabled rule once (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := startLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			r, err := openRunner(cfg, log)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, cancel := signalContext(log)
			defer cancel()

			stats := r.Run(ctx)
			if code := stats.ExitCode(cfg.StrictExit); code != pipeline.ExitOK {
				return exitError{code}
			}
			return nil
		},
	}
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run once, then re-run whenever files land in a rule's source directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := startLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			r, err := openRunner(cfg, log)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, cancel := signalContext(log)
			defer cancel()

			r.Run(ctx)
			w, err := watch.New(r.WatchDirs(), cfg.Debounce, log)
			if err != nil {
				return err
			}
			return w.Run(ctx, func(ctx context.Context) { r.Run(ctx) })
		},
	}
}

func newScheduleCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <cron expression>",
		Short: "Run the rules on a cron schedule, e.g. \"*/15 * * * *\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := startLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			s, err := schedule.New(args[0], log)
			if err != nil {
				return err
			}
			r, err := openRunner(cfg, log)
			if err != nil {
				return err
			}
			defer r.Close()

			ctx, cancel := signalContext(log)
			defer cancel()
			return s.Run(ctx, func(ctx context.Context) { r.Run(ctx) })
		},
	}
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the rule file without touching any file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := startLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			n, err := check.RunCheck(cfg, log)
			if err != nil {
				log.Error("%v", err)
				return exitError{pipeline.ExitFatal}
			}
			if n > 0 {
				return exitError{pipeline.ExitFatal}
			}
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <filename>...",
		Short: "Show how filenames are parsed and what their canonical form is",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				p, err := filename.Parse(a, filename.Options{})
				if err != nil {
					return err
				}
				display.PrintParts(cmd.OutOrStdout(), a, p)
			}
			return nil
		},
	}
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var (
		limit int
		runID string
		runs  bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled moves and copies, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.JournalPath == "" {
				return errNoJournal
			}
			if _, err := os.Stat(cfg.JournalPath); err != nil {
				return err
			}
			s, err := journal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if runs {
				list, err := s.Runs(limit)
				if err != nil {
					return err
				}
				display.PrintRuns(out, list)
				return nil
			}
			entries, err := s.Entries(journal.Query{RunID: runID, Limit: limit})
			if err != nil {
				return err
			}
			display.PrintEntries(out, entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows")
	cmd.Flags().StringVar(&runID, "run", "", "Only show operations of this run ID")
	cmd.Flags().BoolVar(&runs, "runs", false, "List runs instead of operations")
	return cmd
}
