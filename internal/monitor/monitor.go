// Package monitor runs the control loop: poll the thermostat, let every fan
// react to the new state, publish the result, and sleep out the remainder of
// the polling interval.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/clambin/fancontrol/internal/fans"
	"github.com/clambin/fancontrol/internal/thermostat"
	"github.com/clambin/fancontrol/pkg/pubsub"
)

// Update is published after every iteration.
type Update struct {
	Reading             *thermostat.Reading `json:"reading,omitempty"`
	TimeSinceTransition time.Duration       `json:"timeSinceTransition"`
	Failures            uint                `json:"failures"`
	BlowerOverride      bool                `json:"blowerOverride"`
}

// Publisher is the subscription interface offered to consumers of Updates.
type Publisher interface {
	Subscribe() chan Update
	Unsubscribe(ch chan Update)
}

// Monitor drives the fans off the thermostat state. One iteration runs
// everything sequentially: a slow device delays its siblings but cannot
// corrupt them, as nothing runs concurrently.
type Monitor struct {
	*pubsub.Publisher[Update]
	tracker  *thermostat.Tracker
	fans     []fans.Fan
	blower   *fans.FurnaceBlower
	interval time.Duration
	logger   *slog.Logger
}

func New(tracker *thermostat.Tracker, allFans []fans.Fan, blower *fans.FurnaceBlower, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		Publisher: pubsub.New[Update](logger.With(slog.String("component", "registry"))),
		tracker:   tracker,
		fans:      allFans,
		blower:    blower,
		interval:  interval,
		logger:    logger,
	}
}

// Run iterates until ctx is cancelled. Each iteration is followed by a sleep
// for whatever remains of the interval; an iteration that overruns it is
// followed immediately by the next one, without trying to catch up.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Debug("started", slog.Duration("interval", m.interval))
	defer m.logger.Debug("stopped")

	for {
		start := time.Now()
		m.iterate(ctx)

		idle := m.interval - time.Since(start)
		if idle < 0 {
			idle = 0
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(idle):
		}
	}
}

func (m *Monitor) iterate(ctx context.Context) {
	if err := m.tracker.Poll(ctx); err != nil {
		// fans don't get to act on stale state
		m.logger.Warn("poll failed", slog.Any("err", err))
	} else {
		for _, f := range m.fans {
			f.Update(ctx, m.tracker)
		}
		m.logger.Debug("iteration done",
			slog.Bool("heatOn", m.tracker.HeatOn()),
			slog.Duration("timeSinceTransition", m.tracker.TimeSinceTransition()),
			slog.Bool("blowerOverride", m.blower.Overridden()),
		)
	}
	m.Publish(m.status())
}

func (m *Monitor) status() Update {
	update := Update{
		TimeSinceTransition: m.tracker.TimeSinceTransition(),
		Failures:            m.tracker.Failures(),
		BlowerOverride:      m.blower.Overridden(),
	}
	if reading, ok := m.tracker.Reading(); ok {
		update.Reading = &reading
	}
	return update
}
