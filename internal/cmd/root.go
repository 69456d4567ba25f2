package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/strrl/distcurve/internal/config"
	"github.com/strrl/distcurve/internal/logging"
)

var (
	configDir string
	log       = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "distcurve",
	Short: "Bake root-motion distance curves for animation clips",
	Long: `distcurve samples the root motion of animation clips, finds where the
tracked bone comes to rest and bakes a signed distance curve relative to
that point. Curves are written back to clip manifests, a curve library
database and optionally InfluxDB.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initialize()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = false

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory containing "+config.FileName+" (default: current directory)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")

	mustBind("logLevel", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("logFormat", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initialize() error {
	dirs := []string{"."}
	if configDir != "" {
		dirs = []string{configDir}
	}

	loadErr := config.Load(dirs...)

	log = logging.New(os.Stderr, viper.GetString("logLevel"), viper.GetString("logFormat"))

	if loadErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(loadErr, &notFound) {
			return loadErr
		}
		log.Warn().Strs("dirs", dirs).Msg("No config file found, using defaults")
	}

	return nil
}

// bindFlags binds config keys to the command's flags by name.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind %s: %v", key, err))
	}
}
