package cmd

import (
	"fmt"
	"log/slog"

	"github.com/clambin/fancontrol/internal/app"
	"github.com/clambin/fancontrol/internal/device"
	"github.com/clambin/fancontrol/internal/fans"
	"github.com/clambin/fancontrol/internal/notifier"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var debugCmd = cobra.Command{
	Use:   "debug",
	Short: "Query every device once, print the raw responses and exit",
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, _ []string) error {
	cfg := viper.GetViper()
	fanConfigs, err := app.LoadFans(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "fetching debug data")

	logger := slog.New(slog.DiscardHandler)
	timeout := cfg.GetDuration("poller.timeout")

	allFans := make([]fans.Fan, 0, len(fanConfigs)+1)
	for _, fanConfig := range fanConfigs {
		fanClient := device.New(fanConfig.URL, timeout, nil)
		allFans = append(allFans, fans.NewCeilingFan(fanConfig.Name, fanClient, fans.CeilingFanConfig{}, notifier.Notifiers{}, logger))
	}
	tstatClient := device.New(cfg.GetString("thermostat.url"), timeout, nil)
	allFans = append(allFans, fans.NewFurnaceBlower(tstatClient, 0, notifier.Notifiers{}, logger))

	for _, f := range allFans {
		f.Debug(cmd.Context(), out)
	}
	return nil
}
