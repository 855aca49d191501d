package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Danyil-SY/assistant-bot/internal/app"
	"github.com/Danyil-SY/assistant-bot/internal/image"
	"github.com/Danyil-SY/assistant-bot/internal/logger"
)

var dockerfileCmd = &cobra.Command{
	Use:   "dockerfile",
	Short: "Print the Dockerfile rendered from the image configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := image.FromConfig(configFrom(cmd))
		if err := spec.Validate(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, spec.Dockerfile())
		if withDigest, _ := cmd.Flags().GetBool("digest"); withDigest {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", spec.Digest())
		}
		return nil
	},
}

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "Work with the bot's container image",
}

var imageBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the image from the local context or a git repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		logInstance := logger.SetupLogger(&cfg.Logging)
		spec := image.FromConfig(cfg)

		tag, _ := cmd.Flags().GetString("tag")
		if tag == "" {
			tag = cfg.Image.Name
		}
		gitURL, _ := cmd.Flags().GetString("git-url")
		ref, _ := cmd.Flags().GetString("ref")

		tools, err := app.NewTooling(logInstance)
		if err != nil {
			return fmt.Errorf("failed to create docker client: %w", err)
		}
		defer tools.Close()

		ctx, cancel := signalContext(cmd.Context(), logInstance)
		defer cancel()

		var id string
		if gitURL != "" {
			id, err = tools.Builder.BuildFromGit(ctx, spec, gitURL, ref, tag)
		} else {
			id, err = tools.Builder.Build(ctx, spec, cfg.Image.Context, tag)
		}
		if err != nil {
			return err
		}
		logInstance.Info().Str("tag", tag).Str("id", id).Msg("Image built")
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that a running container matches the image configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		logInstance := logger.SetupLogger(&cfg.Logging)
		spec := image.FromConfig(cfg)

		name, _ := cmd.Flags().GetString("container")
		if name == "" {
			name = cfg.Docker.Container
		}
		wait, _ := cmd.Flags().GetBool("wait")
		timeout := time.Duration(cfg.Docker.WaitTimeout) * time.Second

		tools, err := app.NewTooling(logInstance)
		if err != nil {
			return fmt.Errorf("failed to create docker client: %w", err)
		}
		defer tools.Close()

		ctx, cancel := signalContext(cmd.Context(), logInstance)
		defer cancel()

		if wait {
			waitCtx, waitCancel := context.WithTimeout(ctx, timeout)
			err := tools.Verifier.WaitStarted(waitCtx, name)
			waitCancel()
			if err != nil {
				return err
			}
		}

		report, err := tools.Verifier.Verify(ctx, name, spec)
		if err != nil {
			return err
		}
		if report.PublishedAddr != "" {
			if err := image.WaitListening(ctx, report.PublishedAddr, timeout); err != nil {
				return fmt.Errorf("container %s: %w", name, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) matches %s, listening on %s\n",
			report.Name, report.ContainerID, spec.ExposedPort(), publishedOrNone(report.PublishedAddr))
		return nil
	},
}

func publishedOrNone(addr string) string {
	if addr == "" {
		return "no published address"
	}
	return addr
}

func init() {
	dockerfileCmd.Flags().Bool("digest", false, "also print the digest of the rendered Dockerfile to stderr")

	imageBuildCmd.Flags().String("tag", "", "image tag (default is image.name)")
	imageBuildCmd.Flags().String("git-url", "", "build from this git repository instead of the local context")
	imageBuildCmd.Flags().String("ref", "", "branch or full reference to clone")
	imageCmd.AddCommand(imageBuildCmd)

	verifyCmd.Flags().String("container", "", "container name (default is docker.container)")
	verifyCmd.Flags().Bool("wait", false, "wait for the container to start first")
}
