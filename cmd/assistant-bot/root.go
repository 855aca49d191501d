package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Danyil-SY/assistant-bot/internal/app"
	"github.com/Danyil-SY/assistant-bot/internal/config"
	"github.com/Danyil-SY/assistant-bot/internal/logger"
)

type contextKey string

const configKey = contextKey("config")

var rootCmd = &cobra.Command{
	Use:   "assistant-bot",
	Short: "Address book assistant packaged as a container process",
	Long: "An address book assistant. By default it bootstraps its working directory, " +
		"dependencies and port, then serves the bot over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}
		if err := config.InitConfig(configFile); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		cmd.SetContext(ctx)
		return nil
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap the process and serve the bot on the declared port",
	RunE:  runServe,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Bootstrap the process and talk to the bot on the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		logInstance := logger.SetupLogger(&cfg.Logging)

		application, err := app.New(cfg, logInstance)
		if err != nil {
			return fmt.Errorf("failed to create app: %w", err)
		}
		return runConsole(cmd.Context(), application, logInstance)
	},
}

func configFrom(cmd *cobra.Command) *config.Config {
	return cmd.Context().Value(configKey).(*config.Config)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := configFrom(cmd)

	// Set up logger.
	logInstance := logger.SetupLogger(&cfg.Logging)

	// Create the application.
	application, err := app.New(cfg, logInstance)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	return run(cmd.Context(), application, logInstance)
}

func run(parent context.Context, application application, logInstance zerolog.Logger) error {
	ctx, cancel := signalContext(parent, logInstance)
	defer cancel()
	defer func() {
		if err := application.Close(); err != nil {
			logInstance.Warn().Err(err).Msg("Failed to close application")
		}
	}()

	// Run the application. When context is canceled, Run returns.
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runConsole(parent context.Context, c console, logInstance zerolog.Logger) error {
	ctx, cancel := signalContext(parent, logInstance)
	defer cancel()
	defer func() {
		if err := c.Close(); err != nil {
			logInstance.Warn().Err(err).Msg("Failed to close application")
		}
	}()

	if err := c.RunConsole(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logInstance zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case sig := <-sigCh:
			logInstance.Info().Msgf("Received signal: %v", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func bindFlag(key string, cmd *cobra.Command, name string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is config.yaml)")
	flags.String("log-level", "INFO", "set log level (e.g. INFO, DEBUG, WARN)")
	flags.Int("port", 8000, "port the entry module listens on")
	flags.String("workdir", ".", "working directory the source tree is copied into")
	flags.String("source-dir", "", "source tree to copy into the working directory")
	flags.String("storage", "file", "address book backend (file, memory or etcd)")
	flags.String("view", "", "console view (simple or table); asks when empty")

	rootCmd.AddCommand(serveCmd, replCmd, dockerfileCmd, imageCmd, verifyCmd)
	bindConfig()
}

// bindConfig binds the persistent flags and the environment to the global viper.
func bindConfig() {
	bindFlag("log.log_level", rootCmd, "log-level")
	bindFlag("app.port", rootCmd, "port")
	bindFlag("app.workdir", rootCmd, "workdir")
	bindFlag("app.source_dir", rootCmd, "source-dir")
	bindFlag("storage.backend", rootCmd, "storage")
	bindFlag("app.view", rootCmd, "view")

	// Enable automatic environment variable binding.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		os.Exit(1)
	}
}
