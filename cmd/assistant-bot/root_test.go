package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
		viper.Reset()
		bindConfig()
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags puts every flag of cmd and its subcommands back to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestDockerfileMatchesCommittedFile(t *testing.T) {
	committed, err := os.ReadFile("../../Dockerfile")
	assert.NilError(t, err)

	stdout, stderr, err := execute(t, "dockerfile", "--digest")
	assert.NilError(t, err)
	assert.Equal(t, stdout, string(committed))
	assert.Check(t, is.Regexp(`^sha256:[0-9a-f]{64}\n$`, stderr))
}

func TestDockerfileReadsConfigFile(t *testing.T) {
	cfgFile := fs.NewFile(t, "config", fs.WithContent(strings.Join([]string{
		"image:",
		"  runtime_image: \"\"",
		"  workdir: /srv/bot",
		"",
	}, "\n")))
	renamed := cfgFile.Path() + ".yaml"
	assert.NilError(t, os.Rename(cfgFile.Path(), renamed))
	t.Cleanup(func() { os.Remove(renamed) })

	stdout, _, err := execute(t, "dockerfile", "--config", renamed)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(stdout, "WORKDIR /srv/bot\n"))
	assert.Check(t, !strings.Contains(stdout, " AS build"))
}

func TestMissingConfigFileFails(t *testing.T) {
	_, _, err := execute(t, "dockerfile", "--config", "/does/not/exist.yaml")
	assert.ErrorContains(t, err, "error reading config file")
}

func TestConfigFileDoesNotLeakIntoNextRun(t *testing.T) {
	cfgFile := fs.NewFile(t, "config", fs.WithContent("image:\n  runtime_image: \"\"\n"))
	renamed := cfgFile.Path() + ".yaml"
	assert.NilError(t, os.Rename(cfgFile.Path(), renamed))
	t.Cleanup(func() { os.Remove(renamed) })

	t.Run("with config", func(t *testing.T) {
		stdout, _, err := execute(t, "dockerfile", "--config", renamed)
		assert.NilError(t, err)
		assert.Check(t, !strings.Contains(stdout, " AS build"))
	})
	t.Run("defaults", func(t *testing.T) {
		stdout, _, err := execute(t, "dockerfile")
		assert.NilError(t, err)
		assert.Check(t, is.Contains(stdout, " AS build"))
	})
}
