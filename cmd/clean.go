package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hotelbooker/internal/config"
	"hotelbooker/internal/report"
)

type cleanOptions struct {
	reportsDir string
	all        bool
	watch      bool
}

func newCleanCmd() *cobra.Command {
	opts := &cleanOptions{}
	cmd := &cobra.Command{
		Use:   "clean [report.html]",
		Short: "Rewrite the dashboard of finished reports",
		Long: `Replaces the four-card dashboard of a report with Features, TestCases
and Step events cards counted from the report itself.

Without arguments the most recent report below the reports directory is
cleaned. --all cleans every report, --watch keeps running and cleans each
new report once the run writing it has finished.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.reportsDir, "reports-dir", config.DefaultReportsDir, "Directory holding the run reports")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Clean every report below the reports directory")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Clean new reports as they are written")
	cmd.MarkFlagsMutuallyExclusive("all", "watch")
	return cmd
}

func runClean(cmd *cobra.Command, opts *cleanOptions, args []string) error {
	if len(args) > 0 && (opts.all || opts.watch) {
		return fmt.Errorf("a report path cannot be combined with --all or --watch")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleaner := report.NewCleaner(opts.reportsDir, cmd.OutOrStdout(), cmd.ErrOrStderr())
	switch {
	case len(args) == 1:
		_, err := cleaner.CleanFile(args[0])
		return err
	case opts.all:
		return cleaner.CleanAll(ctx)
	case opts.watch:
		return watchReports(ctx, cmd, cleaner)
	default:
		return cleaner.CleanLatest()
	}
}

func watchReports(ctx context.Context, cmd *cobra.Command, cleaner *report.Cleaner) error {
	w := report.NewWatcher(report.WatcherConfig{Cleaner: cleaner})
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cleaner.Root, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for new reports, press Ctrl+C to stop\n", cleaner.Root)
	<-ctx.Done()
	return w.Stop()
}
