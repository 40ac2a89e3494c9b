package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openarchive/arcsync/internal/config"
	"github.com/openarchive/arcsync/internal/version"
)

var home, _ = os.UserHomeDir()

const configFileName = "config"

var rootCmd = &cobra.Command{
	Use:           "arcsync",
	Short:         "ArcSync CLI - synchronize local datasets with the archive",
	Version:       version.Detailed(),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "ArcSync config file")
	rootCmd.PersistentFlags().StringP("server", "s", config.DefaultServerURL, "Archive server URL")
	rootCmd.PersistentFlags().StringP("token", "t", "", "Archive API token")
	rootCmd.PersistentFlags().String("cache-dir", config.DefaultCacheDir, "Digest cache directory")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(uploadCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".arcsync"))
		viper.AddConfigPath(filepath.Join(home, ".config/arcsync"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("api_token", cmd.Flags().Lookup("token"))
	viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))

	viper.SetEnvPrefix("ARCSYNC")
	viper.AutomaticEnv()

	cfg := &config.Config{
		Path:      viper.ConfigFileUsed(),
		ServerURL: viper.GetString("server_url"),
		APIToken:  viper.GetString("api_token"),
		CacheDir:  viper.GetString("cache_dir"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
