// Package fans drives the fans that react to the furnace's heat call: the
// ceiling fans, sped up while warm air comes in from the ceiling, and the
// furnace blower, kept running after the heat call ends.
package fans

import (
	"context"
	"io"
	"time"

	"github.com/clambin/fancontrol/internal/thermostat"
)

// Fan is a device that adjusts itself to the tracked thermostat state.
// Update runs once per control loop iteration, after a successful poll.
type Fan interface {
	Update(ctx context.Context, tstat Thermostat)
	Debug(ctx context.Context, w io.Writer)
}

// Thermostat is the tracked furnace state that fans act on.
type Thermostat interface {
	HeatOn() bool
	BlowerMode() (thermostat.BlowerMode, bool)
	Transitioned() bool
	TimeSinceTransition() time.Duration
}

// Client is the device transport fans send their commands over.
type Client interface {
	Command(ctx context.Context, payload any) error
	Query(ctx context.Context, payload any, out any) error
	Probe(ctx context.Context, payload any) (int, []byte, error)
}
