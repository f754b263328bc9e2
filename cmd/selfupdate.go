package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepo is the GitHub repository (owner/repo) releases are published
// to. It is set at build time with -ldflags "-X hotelbooker/cmd.releaseRepo=owner/repo".
var releaseRepo = ""

// releaseUpdater is the part of *selfupdate.Updater self-update drives.
type releaseUpdater interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

var _ releaseUpdater = (*selfupdate.Updater)(nil)

// newReleaseUpdater is swapped in tests to keep them off the network.
var newReleaseUpdater = func() (releaseUpdater, error) {
	return selfupdate.NewUpdater(selfupdate.Config{})
}

// resolveReleaseRepo prefers the --repo flag over the build-time default.
func resolveReleaseRepo(cmd *cobra.Command) string {
	if cmd != nil {
		if r, _ := cmd.Flags().GetString("repo"); r != "" {
			return r
		}
	}
	return releaseRepo
}

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
// This allows the application to update itself to the latest version from GitHub.
func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update hotelbooker to the latest version",
		Long: `Checks for the latest release of hotelbooker on GitHub and
updates the current binary if a newer version is found.`,
		RunE: runSelfUpdate,
	}
	cmd.Flags().String("repo", "", "GitHub repository (owner/repo) to update from")
	return cmd
}

// runSelfUpdate checks the current version against the latest GitHub release and updates if necessary.
func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	// Development builds are not releases and have no semantic version.
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	repo := resolveReleaseRepo(cmd)
	if repo == "" {
		return errors.New("no release repository configured, pass --repo owner/repo")
	}

	out := rootCmd.OutOrStdout()
	ctx := context.Background()
	if cmd != nil {
		out = cmd.OutOrStdout()
		if cmd.Context() != nil {
			ctx = cmd.Context()
		}
	}

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintln(out, "Checking for updates...")

	updater, err := newReleaseUpdater()
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", repo)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	fmt.Fprintf(out, "Release notes:\n%s\n", latest.ReleaseNotes)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())

	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
