package fans

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/clambin/fancontrol/internal/notifier"
	"github.com/clambin/fancontrol/internal/thermostat"
)

// FurnaceBlower keeps the furnace blower running for a tail window after the
// heat call ends. While the override is engaged, the mode the thermostat was
// in is latched; once the window expires (or heat resumes), the latched mode
// is restored, retrying every iteration until the thermostat reports it.
type FurnaceBlower struct {
	client   Client
	tail     time.Duration
	notifier notifier.Notifier
	logger   *slog.Logger
	latched  *thermostat.BlowerMode
}

var _ Fan = &FurnaceBlower{}

func NewFurnaceBlower(client Client, tail time.Duration, n notifier.Notifier, logger *slog.Logger) *FurnaceBlower {
	return &FurnaceBlower{
		client:   client,
		tail:     tail,
		notifier: n,
		logger:   logger,
	}
}

func (b *FurnaceBlower) Update(ctx context.Context, tstat Thermostat) {
	mode, ok := tstat.BlowerMode()

	if !tstat.HeatOn() && (tstat.Transitioned() || tstat.TimeSinceTransition() < b.tail) {
		if b.latched == nil && ok {
			m := mode
			b.latched = &m
			b.logger.Info("blower mode latched", "mode", mode)
			b.notifier.Notify("blower override engaged", "keeping the blower running after the heat call")
		}
		if ok && mode != thermostat.ModeOn {
			b.setMode(ctx, thermostat.ModeOn)
		}
		return
	}

	if b.latched == nil {
		return
	}
	if ok && mode == *b.latched {
		// thermostat already reports the latched mode: override over
		b.latched = nil
		b.notifier.Notify("blower override released", fmt.Sprintf("blower back in %s", mode))
		return
	}
	b.setMode(ctx, *b.latched)
}

// Overridden reports whether the blower is currently being forced on.
func (b *FurnaceBlower) Overridden() bool {
	return b.latched != nil
}

type setModeRequest struct {
	FMode int `json:"fmode"`
}

func (b *FurnaceBlower) setMode(ctx context.Context, mode thermostat.BlowerMode) {
	start := time.Now()
	if err := b.client.Command(ctx, setModeRequest{FMode: int(mode)}); err != nil {
		b.logger.Error("failed to set blower mode", "mode", mode, "err", err)
		return
	}
	b.logger.Info("blower mode set", "mode", mode, "duration", time.Since(start))
}

// Debug reads the thermostat state: blower commands go to the thermostat, so
// that's the device to diagnose.
func (b *FurnaceBlower) Debug(ctx context.Context, w io.Writer) {
	code, body, err := b.client.Probe(ctx, nil)
	if err != nil {
		_, _ = fmt.Fprintf(w, "thermostat query failed: %v\n\n", err)
		return
	}
	_, _ = fmt.Fprintf(w, "thermostat response: %d\n%s\n\n", code, body)
}
