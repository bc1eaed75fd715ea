package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"portfolio/src/config"
	"portfolio/src/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	settingsPath string
	environment  string
)

var rootCmd = &cobra.Command{
	Use:   "portfolioctl",
	Short: "Operate the portfolio service from the command line",
	Long: `portfolioctl runs the maintenance jobs of the portfolio service without going
through the worker HTTP API.

Examples:
  portfolioctl migrate
  portfolioctl refresh-prices --env PRODUCTION
  portfolioctl snapshot
  portfolioctl token user-1 --ttl 24h`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "./settings", "directory holding appsettings.yaml")
	rootCmd.PersistentFlags().StringVarP(&environment, "env", "e", os.Getenv("ENV"), "settings overlay to merge, e.g. TESTING")
}

// loadConfig reads the settings the same way the servers do.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(settingsPath, environment)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ResolveSecrets(cfg); err != nil {
		return nil, nil, fmt.Errorf("resolve secrets: %w", err)
	}
	// CLI output goes to stdout, so logs are kept on stderr.
	logger := utils.NewLogger(utils.ParseLevel(cfg.Logging.Level), cfg.Logging.ToFile, cfg.Logging.FilePath)
	if !cfg.Logging.ToFile {
		logger.SetOutput(os.Stderr)
	}
	return cfg, logger, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
