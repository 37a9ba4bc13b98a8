package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/uartwatch/internal/config"
	"github.com/atikulmunna/uartwatch/internal/logger"
)

var (
	cfgFile     string
	levelFilter string
	logLevel    string
	logFormat   string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "uartwatch",
	Short: "uartwatch: serial console monitor",
	Long: `uartwatch watches the serial console of an embedded device.
It splits the byte stream into lines, classifies each line by configurable
patterns, writes daily log files, raises watchdog alerts when expected output
stops, and sends periodic count reports to Slack and Telegram.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(logLevel, logFormat, "stderr", "")
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.uartwatch.yaml)")
	flags.StringP("output", "o", "text", "terminal output: text, json, none")
	flags.StringVarP(&levelFilter, "level", "l", "", "only echo lines at this level or more severe, e.g. warn")
	flags.StringVar(&logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "text", "diagnostic log format: text, json")

	cobra.CheckErr(viper.BindPFlag("output", flags.Lookup("output")))
}

func initConfig() {
	// Secrets may live in a .env file next to the config.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".uartwatch")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			cobra.CheckErr(fmt.Errorf("failed to read config: %w", err))
		}
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if f := viper.ConfigFileUsed(); f != "" {
		logger.WithField("file", f).Debug("configuration loaded")
	}
	return cfg, nil
}
