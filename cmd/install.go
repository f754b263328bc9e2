package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hotelbooker/internal/browser"
)

// installBrowsers is swapped in tests.
var installBrowsers = browser.Install

func newInstallCmd() *cobra.Command {
	var (
		browsers []string
		quiet    bool
	)
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download the playwright driver and browsers",
		Long: `Downloads the playwright driver and the browser engines it automates.
This is needed once per machine before 'hotelbooker run' can use the
playwright driver. The chromedp driver uses the locally installed Chrome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			label := "all browsers"
			if len(browsers) > 0 {
				label = fmt.Sprint(browsers)
			}
			stop := startSpinner(cmd, quiet, "Installing playwright and "+label+"...")
			err := installBrowsers(browsers, debug)
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Playwright browsers installed.")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&browsers, "browser", nil, "Browser engines to install (chromium, firefox, webkit)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show a progress spinner")
	return cmd
}
