package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"video-maker/internal/logger"
	"video-maker/models"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string

	ctx := &commandContext{configFlag: &configFlag, logLevel: &logLevel}

	rootCmd := &cobra.Command{
		Use:           "video-maker",
		Short:         "Build narrated videos from numbered text and image segments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newManifestCommand(ctx))
	rootCmd.AddCommand(newTranscribeCommand(ctx))
	rootCmd.AddCommand(newMergeCommand(ctx))
	rootCmd.AddCommand(newMergeAudioCommand(ctx))
	rootCmd.AddCommand(newVoicesCommand())
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newPlayCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}

// commandContext loads the configuration once per invocation and applies
// its logging section.
type commandContext struct {
	configFlag *string
	logLevel   *string

	configOnce sync.Once
	config     *models.Config
	configPath string
	configErr  error
}

func (c *commandContext) ensureConfig() (*models.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := models.LoadConfig(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}

		levelName := cfg.Logging.Level
		if flag := strings.TrimSpace(*c.logLevel); flag != "" {
			levelName = flag
		}
		level, err := logger.ParseLevel(levelName)
		if err != nil {
			c.configErr = err
			return
		}
		logger.Configure(logger.Options{Level: level, Format: cfg.Logging.Format, Output: os.Stderr})

		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}
