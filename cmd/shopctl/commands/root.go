package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shopfront/cmd/shopctl/output"
	"shopfront/internal/auth"
	"shopfront/internal/config"
	"shopfront/internal/service"
	"shopfront/internal/store"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Administer the shopfront store",
	Long: `shopctl manages shopfront accounts directly against the configured store.

It reads the same configuration as the server (SHOP_* environment variables,
.env and an optional config file).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(userCmd, tokenCmd)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

// withUsers opens the configured store for the duration of fn.
func withUsers(ctx context.Context, fn func(service.UserService) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.Open(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	return fn(service.NewUserService(st.Users, tokens))
}
