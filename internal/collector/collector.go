package collector

import (
	"context"
	"log/slog"
	"sync"

	"github.com/clambin/fancontrol/internal/monitor"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	temperature = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "thermostat", "temperature"),
		"Temperature reported by the thermostat, in device units",
		nil,
		nil,
	)
	targetTemperature = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "thermostat", "target_temperature"),
		"Target temperature, in device units",
		nil,
		nil,
	)
	heatOn = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "thermostat", "heat_on"),
		"1 if the furnace is calling for heat",
		nil,
		nil,
	)
	blowerMode = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "thermostat", "blower_mode"),
		"Blower mode reported by the thermostat. Always 1. See label 'mode'",
		[]string{"mode"},
		nil,
	)
	pollFailures = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "poller", "failures"),
		"Number of consecutive failed thermostat polls",
		nil,
		nil,
	)
	blowerOverride = prometheus.NewDesc(
		prometheus.BuildFQName("fancontrol", "blower", "override_active"),
		"1 while the blower is forced on after a heat call",
		nil,
		nil,
	)
)

// Collector exports the last update of the control loop as Prometheus metrics.
type Collector struct {
	Monitor    monitor.Publisher
	Logger     *slog.Logger
	lock       sync.RWMutex
	lastUpdate *monitor.Update
}

var _ prometheus.Collector = &Collector{}

func (c *Collector) Run(ctx context.Context) error {
	c.Logger.Debug("started")
	defer c.Logger.Debug("stopped")

	ch := c.Monitor.Subscribe()
	defer c.Monitor.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-ch:
			c.lock.Lock()
			c.lastUpdate = &update
			c.lock.Unlock()
		}
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- temperature
	ch <- targetTemperature
	ch <- heatOn
	ch <- blowerMode
	ch <- pollFailures
	ch <- blowerOverride
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.lastUpdate == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(pollFailures, prometheus.GaugeValue, float64(c.lastUpdate.Failures))
	ch <- prometheus.MustNewConstMetric(blowerOverride, prometheus.GaugeValue, boolToFloat(c.lastUpdate.BlowerOverride))

	if reading := c.lastUpdate.Reading; reading != nil {
		ch <- prometheus.MustNewConstMetric(temperature, prometheus.GaugeValue, reading.Temperature)
		ch <- prometheus.MustNewConstMetric(targetTemperature, prometheus.GaugeValue, reading.Target)
		ch <- prometheus.MustNewConstMetric(heatOn, prometheus.GaugeValue, boolToFloat(reading.HeatOn))
		ch <- prometheus.MustNewConstMetric(blowerMode, prometheus.GaugeValue, 1, reading.Blower.String())
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
