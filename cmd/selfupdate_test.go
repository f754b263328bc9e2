package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpdater records the repository it was asked about and reports no
// release unless detectErr is set.
type fakeUpdater struct {
	repo      string
	detectErr error
	updated   bool
}

func (f *fakeUpdater) DetectLatest(_ context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error) {
	owner, name, err := repository.GetSlug()
	if err != nil {
		return nil, false, err
	}
	f.repo = owner + "/" + name
	return nil, false, f.detectErr
}

func (f *fakeUpdater) UpdateTo(context.Context, *selfupdate.Release, string) error {
	f.updated = true
	return nil
}

// withRelease pins the version and build-time repository and routes the
// updater to a fake for the duration of the test.
func withRelease(t *testing.T, version, repo string) *fakeUpdater {
	t.Helper()
	origVersion, origRepo, origUpdater := rootCmd.Version, releaseRepo, newReleaseUpdater
	t.Cleanup(func() {
		rootCmd.Version, releaseRepo, newReleaseUpdater = origVersion, origRepo, origUpdater
	})
	rootCmd.Version, releaseRepo = version, repo
	fake := &fakeUpdater{}
	newReleaseUpdater = func() (releaseUpdater, error) { return fake, nil }
	return fake
}

func executeSelfUpdate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newSelfUpdateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	err := cmd.Execute()
	return out.String(), err
}

func TestNewSelfUpdateCmd(t *testing.T) {
	cmd := newSelfUpdateCmd()
	assert.Equal(t, "self-update", cmd.Use)
	assert.Contains(t, cmd.Short, "hotelbooker")
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.RunE)
	require.NotNil(t, cmd.Flags().Lookup("repo"))
}

func TestRunSelfUpdate_DevelopmentVersions(t *testing.T) {
	for _, version := range []string{"dev", ""} {
		t.Run("version "+version, func(t *testing.T) {
			fake := withRelease(t, version, "acme/hotelbooker")

			_, err := executeSelfUpdate(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot self-update a development version")
			assert.Empty(t, fake.repo, "no release lookup for development builds")
		})
	}
}

func TestRunSelfUpdate_WithoutRepository(t *testing.T) {
	fake := withRelease(t, "1.0.0", "")

	_, err := executeSelfUpdate(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release repository configured")
	assert.Empty(t, fake.repo)
}

func TestResolveReleaseRepo(t *testing.T) {
	withRelease(t, "1.0.0", "acme/hotelbooker")

	cmd := newSelfUpdateCmd()
	assert.Equal(t, "acme/hotelbooker", resolveReleaseRepo(cmd))
	assert.Equal(t, "acme/hotelbooker", resolveReleaseRepo(nil))

	require.NoError(t, cmd.Flags().Set("repo", "forks/hotelbooker"))
	assert.Equal(t, "forks/hotelbooker", resolveReleaseRepo(cmd))
}

func TestRunSelfUpdate_RepoFlagWins(t *testing.T) {
	fake := withRelease(t, "1.0.0", "acme/hotelbooker")

	out, err := executeSelfUpdate(t, "--repo", "forks/hotelbooker")
	require.Error(t, err)
	assert.Equal(t, "latest release for forks/hotelbooker could not be found", err.Error())
	assert.Equal(t, "forks/hotelbooker", fake.repo)
	assert.False(t, fake.updated)
	assert.Contains(t, out, "Current version: 1.0.0\nChecking for updates...\n")
}

func TestRunSelfUpdate_BuildTimeRepository(t *testing.T) {
	fake := withRelease(t, "1.2.3", "acme/hotelbooker")

	out, err := executeSelfUpdate(t)
	require.Error(t, err)
	assert.Equal(t, "acme/hotelbooker", fake.repo)
	assert.Contains(t, out, "Current version: 1.2.3")
}

func TestRunSelfUpdate_WritesToCommandOutput(t *testing.T) {
	withRelease(t, "1.0.0", "acme/hotelbooker")

	var rootOut bytes.Buffer
	rootCmd.SetOut(&rootOut)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	out, _ := executeSelfUpdate(t)
	assert.Contains(t, out, "Checking for updates...")
	assert.Empty(t, rootOut.String(), "output goes to the command's writer, not the root's")
}

func TestRunSelfUpdate_DetectError(t *testing.T) {
	fake := withRelease(t, "1.0.0", "acme/hotelbooker")
	fake.detectErr = errors.New("rate limited")

	_, err := executeSelfUpdate(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error detecting latest version")
	assert.ErrorIs(t, err, fake.detectErr)
}

func TestRunSelfUpdate_UpdaterSetupError(t *testing.T) {
	withRelease(t, "1.0.0", "acme/hotelbooker")
	newReleaseUpdater = func() (releaseUpdater, error) { return nil, errors.New("no token") }

	_, err := executeSelfUpdate(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create updater")
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	cmd := newSelfUpdateCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Checks for the latest release")
	assert.Contains(t, buf.String(), "--repo")
}
