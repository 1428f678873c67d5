package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/edgelink/knxip/knx"
	"github.com/edgelink/knxip/knx/util"
)

var (
	cfgFile  string
	gateway  string
	filter   string
	physAddr string
	twoLevel bool
	timeout  time.Duration
	logLevel string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "knxip",
	Short: "A KNXnet/IP tunneling client CLI",
	Long: `knxip is a command-line tool for talking to KNX installations through
a KNXnet/IP gateway.

It supports gateway discovery, group address read/write operations and
bus monitoring over a tunneling connection.

Examples:
  # Discover gateways on the local network
  knxip scan

  # Read a group address
  knxip read 1/2/3

  # Switch a light on
  knxip write 1/2/3 --dpt 1.001 --value 1

  # Monitor group traffic
  knxip watch`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		switch viper.GetString("loglevel") {
		case "debug", "trace":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		util.Logger = logger

		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.knxip.yaml)")
	rootCmd.PersistentFlags().StringVarP(&gateway, "gateway", "g", "", "Gateway endpoint ip:port (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&filter, "filter", "", "Discovery filter: accept only this gateway physical address")
	rootCmd.PersistentFlags().StringVar(&physAddr, "phys-addr", "15.15.15", "Source physical address")
	rootCmd.PersistentFlags().BoolVar(&twoLevel, "two-level", false, "Use two-level group address format")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")

	viper.BindPFlag("gateway", rootCmd.PersistentFlags().Lookup("gateway"))
	viper.BindPFlag("filter", rootCmd.PersistentFlags().Lookup("filter"))
	viper.BindPFlag("phys-addr", rootCmd.PersistentFlags().Lookup("phys-addr"))
	viper.BindPFlag("two-level", rootCmd.PersistentFlags().Lookup("two-level"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(watchCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".knxip")
		}
	}

	viper.SetEnvPrefix("KNXIP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger = slog.Default()
		logger.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}

// tunnelConfig assembles the client configuration from flags and config
// file.
func tunnelConfig() knx.TunnelConfig {
	return knx.TunnelConfig{
		Gateway:            viper.GetString("gateway"),
		GatewayFilter:      viper.GetString("filter"),
		PhysAddr:           viper.GetString("phys-addr"),
		TwoLevelAddressing: viper.GetBool("two-level"),
		ResponseTimeout:    viper.GetDuration("timeout"),
	}
}
