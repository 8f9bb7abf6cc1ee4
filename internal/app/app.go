// Package app assembles the fancontrol tasks: the control loop, the
// Prometheus exporter and the health endpoint.
package app

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/clambin/fancontrol/internal/collector"
	"github.com/clambin/fancontrol/internal/device"
	"github.com/clambin/fancontrol/internal/fans"
	"github.com/clambin/fancontrol/internal/health"
	"github.com/clambin/fancontrol/internal/monitor"
	"github.com/clambin/fancontrol/internal/notifier"
	"github.com/clambin/fancontrol/internal/thermostat"
	"github.com/clambin/go-common/taskmanager"
	"github.com/clambin/go-common/taskmanager/httpserver"
	promserver "github.com/clambin/go-common/taskmanager/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
)

func New(cfg *viper.Viper, registry prometheus.Registerer, logger *slog.Logger) (*taskmanager.Manager, error) {
	fanConfigs, err := LoadFans(cfg)
	if err != nil {
		return nil, err
	}
	return taskmanager.New(makeTasks(cfg, fanConfigs, registry, logger)...), nil
}

// LoadFans reads the ceiling fan configuration from fans.yaml, found in the
// same directory as the config file. No fans.yaml means no ceiling fans.
func LoadFans(cfg *viper.Viper) ([]fans.Config, error) {
	f, err := os.Open(filepath.Join(filepath.Dir(cfg.ConfigFileUsed()), "fans.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		return nil, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return fans.Load(f)
}

func makeTasks(cfg *viper.Viper, fanConfigs []fans.Config, registry prometheus.Registerer, l *slog.Logger) []taskmanager.Task {
	callMetrics := device.NewCallMetrics("fancontrol", "", prometheus.Labels{"application": "fancontrol"})
	if registry != nil {
		registry.MustRegister(callMetrics)
	}

	// Notifiers
	notifiers := notifier.Notifiers{notifier.SLogNotifier{Logger: l.With(slog.String("component", "notifier"))}}
	if token := cfg.GetString("slack.token"); token != "" {
		notifiers = append(notifiers, &notifier.SlackNotifier{
			Logger:      l.With(slog.String("component", "notifier")),
			SlackSender: slack.New(token),
		})
	}

	timeout := cfg.GetDuration("poller.timeout")
	tail := cfg.GetDuration("blower.runAfterHeatOff")

	// Thermostat. The blower shares its transport: blower commands go to the
	// thermostat.
	tstatClient := device.New(cfg.GetString("thermostat.url"), timeout, callMetrics)
	tracker := thermostat.New(tstatClient, tail, l.With(slog.String("component", "thermostat")))

	// Fans
	fanCfg := fans.CeilingFanConfig{
		OnDelay:      cfg.GetDuration("fans.onDelay"),
		OffDelay:     cfg.GetDuration("fans.offDelay"),
		HeatOnSpeed:  cfg.GetInt("fans.heatOnSpeed"),
		HeatOffSpeed: cfg.GetInt("fans.heatOffSpeed"),
	}
	allFans := make([]fans.Fan, 0, len(fanConfigs)+1)
	for _, fanConfig := range fanConfigs {
		fanClient := device.New(fanConfig.URL, timeout, callMetrics)
		allFans = append(allFans, fans.NewCeilingFan(fanConfig.Name, fanClient, fanCfg, notifiers, l.With(slog.String("fan", fanConfig.Name))))
	}
	if len(fanConfigs) == 0 {
		l.Warn("no ceiling fans configured. only the blower will be driven")
	}
	blower := fans.NewFurnaceBlower(tstatClient, tail, notifiers, l.With(slog.String("component", "blower")))
	allFans = append(allFans, blower)

	// Control loop
	m := monitor.New(tracker, allFans, blower, cfg.GetDuration("poller.interval"), l.With(slog.String("component", "monitor")))
	tasks := []taskmanager.Task{m}

	// Collector
	coll := &collector.Collector{Monitor: m, Logger: l.With(slog.String("component", "collector"))}
	if registry != nil {
		registry.MustRegister(coll)
	}
	tasks = append(tasks, coll)

	// Prometheus Server
	tasks = append(tasks, promserver.New(promserver.WithAddr(cfg.GetString("exporter.addr"))))

	// Health Endpoint
	h := health.New(m, l.With(slog.String("component", "health")))
	tasks = append(tasks, h)
	r := http.NewServeMux()
	r.Handle("/health", h)
	tasks = append(tasks, httpserver.New(cfg.GetString("health.addr"), r))

	return tasks
}
