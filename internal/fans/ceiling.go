package fans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clambin/fancontrol/internal/device"
	"github.com/clambin/fancontrol/internal/notifier"
)

// CeilingFanConfig holds the settle delays and target speeds for the ceiling
// fans. The on delay is shorter than the off delay: warm air arrives quickly
// after a heat call but takes a while to dissipate afterwards.
type CeilingFanConfig struct {
	OnDelay      time.Duration
	OffDelay     time.Duration
	HeatOnSpeed  int
	HeatOffSpeed int
}

// CeilingFan adjusts one ceiling fan's speed after the heat call has been
// stable for the configured delay. At most one speed change is issued per
// stable interval; a failed command leaves the state unapplied, so it gets
// retried on the next iteration.
type CeilingFan struct {
	name     string
	client   Client
	cfg      CeilingFanConfig
	notifier notifier.Notifier
	logger   *slog.Logger
	applied  bool
}

var _ Fan = &CeilingFan{}

func NewCeilingFan(name string, client Client, cfg CeilingFanConfig, n notifier.Notifier, logger *slog.Logger) *CeilingFan {
	return &CeilingFan{
		name:     name,
		client:   client,
		cfg:      cfg,
		notifier: n,
		logger:   logger,
	}
}

func (f *CeilingFan) Update(ctx context.Context, tstat Thermostat) {
	if tstat.Transitioned() {
		// new debounce window
		f.applied = false
		return
	}
	if f.applied {
		return
	}

	delay, speed, reason := f.cfg.OffDelay, f.cfg.HeatOffSpeed, "heat turned off"
	if tstat.HeatOn() {
		delay, speed, reason = f.cfg.OnDelay, f.cfg.HeatOnSpeed, "heat turned on"
	}
	if tstat.TimeSinceTransition() <= delay {
		return
	}

	if err := f.SetSpeed(ctx, speed); err != nil {
		f.logger.Error("failed to set fan speed", "speed", speed, "err", err)
		return
	}
	f.notifier.Notify(fmt.Sprintf("%s: speed set to %d", f.name, speed), reason)
	f.applied = true
}

type setSpeedRequest struct {
	FanSpeed int `json:"fanSpeed"`
}

type shadowQuery struct {
	QueryDynamicShadowData int `json:"queryDynamicShadowData"`
}

type rebootRequest struct {
	Reboot int `json:"reboot"`
}

// SetSpeed sets the fan speed.
func (f *CeilingFan) SetSpeed(ctx context.Context, speed int) error {
	start := time.Now()
	if err := f.client.Command(ctx, setSpeedRequest{FanSpeed: speed}); err != nil {
		return err
	}
	f.logger.Info("fan speed set", "speed", speed, "duration", time.Since(start))
	return nil
}

// GetSpeed queries the fan for its current speed.
func (f *CeilingFan) GetSpeed(ctx context.Context) (int, error) {
	var response struct {
		FanSpeed *int `json:"fanSpeed"`
	}
	if err := f.client.Query(ctx, shadowQuery{QueryDynamicShadowData: 1}, &response); err != nil {
		return 0, err
	}
	if response.FanSpeed == nil {
		return 0, &device.ParseError{Err: errors.New("missing fanSpeed")}
	}
	return *response.FanSpeed, nil
}

// Reboot power-cycles the fan. The fan doesn't answer reboot commands; the
// request timing out is the expected outcome, not a failure.
func (f *CeilingFan) Reboot(ctx context.Context) error {
	err := f.client.Command(ctx, rebootRequest{Reboot: 1})
	var transportErr *device.TransportError
	if errors.As(err, &transportErr) {
		return nil
	}
	return err
}

func (f *CeilingFan) Debug(ctx context.Context, w io.Writer) {
	code, body, err := f.client.Probe(ctx, shadowQuery{QueryDynamicShadowData: 1})
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s: fan query failed: %v\n\n", f.name, err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: fan query response: %d\n%s\n\n", f.name, code, body)
}
