package fans

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clambin/fancontrol/internal/thermostat"
)

type fakeThermostat struct {
	heatOn       bool
	mode         thermostat.BlowerMode
	hasMode      bool
	transitioned bool
	since        time.Duration
}

func (f *fakeThermostat) HeatOn() bool { return f.heatOn }

func (f *fakeThermostat) BlowerMode() (thermostat.BlowerMode, bool) { return f.mode, f.hasMode }

func (f *fakeThermostat) Transitioned() bool { return f.transitioned }

func (f *fakeThermostat) TimeSinceTransition() time.Duration { return f.since }

type fakeClient struct {
	commands  []any
	nextErr   error
	readBody  []byte
	probeCode int
}

func (c *fakeClient) Command(_ context.Context, payload any) error {
	if c.nextErr != nil {
		err := c.nextErr
		c.nextErr = nil
		return err
	}
	c.commands = append(c.commands, payload)
	return nil
}

func (c *fakeClient) Query(_ context.Context, _ any, out any) error {
	return json.Unmarshal(c.readBody, out)
}

func (c *fakeClient) Probe(_ context.Context, _ any) (int, []byte, error) {
	return c.probeCode, c.readBody, nil
}
