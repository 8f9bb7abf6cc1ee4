package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clambin/fancontrol/internal/app"
	"github.com/clambin/go-common/charmer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilename string
	RootCmd        = cobra.Command{
		Use:   "fancontrol",
		Short: "Drives ceiling fans and the furnace blower off the thermostat's heat call",
		RunE:  run,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	RootCmd.PersistentFlags().Bool("debug", false, "Log debug messages")
	_ = viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))

	RootCmd.AddCommand(&debugCmd)
}

var args = charmer.Arguments{
	"debug":                  charmer.Argument{Default: false, Help: "Log debug messages"},
	"thermostat.url":         charmer.Argument{Default: "http://192.168.0.73/tstat", Help: "Thermostat URL"},
	"poller.interval":        charmer.Argument{Default: 15 * time.Second, Help: "Thermostat poll interval"},
	"poller.timeout":         charmer.Argument{Default: 10 * time.Second, Help: "Device request timeout"},
	"blower.runAfterHeatOff": charmer.Argument{Default: 6 * time.Minute, Help: "How long to run the blower after the heat call ends"},
	"fans.onDelay":           charmer.Argument{Default: time.Minute, Help: "Settle delay before speeding fans up"},
	"fans.offDelay":          charmer.Argument{Default: 3 * time.Minute, Help: "Settle delay before slowing fans down"},
	"fans.heatOnSpeed":       charmer.Argument{Default: 2, Help: "Fan speed while the furnace runs"},
	"fans.heatOffSpeed":      charmer.Argument{Default: 1, Help: "Fan speed while the furnace is off"},
	"exporter.addr":          charmer.Argument{Default: ":9090", Help: "Address of Prometheus exporter"},
	"health.addr":            charmer.Argument{Default: ":8080", Help: "Address of /health endpoint"},
	"slack.token":            charmer.Argument{Default: "", Help: "Slack token"},
}

func initConfig() {
	if configFilename != "" {
		viper.SetConfigFile(configFilename)
	} else {
		viper.AddConfigPath("/etc/fancontrol/")
		viper.AddConfigPath("$HOME/.fancontrol")
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}

	if err := charmer.SetDefaults(viper.GetViper(), args); err != nil {
		panic("failed to set viper defaults: " + err.Error())
	}

	viper.SetEnvPrefix("FANCONTROL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// all settings have defaults. a missing config file is not an error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", "err", err)
			os.Exit(1)
		}
	}
}

func run(cmd *cobra.Command, _ []string) error {
	logger := newLogger()
	logger.Info("fancontrol starting", "version", cmd.Root().Version)

	a, err := app.New(viper.GetViper(), prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return a.Run(ctx)
}

func newLogger() *slog.Logger {
	var opts slog.HandlerOptions
	if viper.GetBool("debug") {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &opts))
}
